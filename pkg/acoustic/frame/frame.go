// Package frame chunks byte streams into ordered packets and serializes
// them into the fixed wire layout carried over the acoustic channel.
package frame

import (
	"encoding/binary"
	"fmt"
	"sort"
)

const (
	// MaxPacketSize is the largest payload carried by a single packet.
	// Longer inputs are split across multiple packets.
	MaxPacketSize = 128

	// HeaderLength is the fixed frame header size: 8-byte little-endian
	// order followed by an 8-byte little-endian payload length.
	HeaderLength = 16
)

// ErrMalformedFrame is returned when a frame buffer is shorter than its
// declared payload length.
var ErrMalformedFrame = fmt.Errorf("frame: buffer shorter than declared length")

// Packet is one ordered slice of a larger byte stream. Order values
// produced by Chunk are dense, zero-based and contiguous.
type Packet struct {
	Order uint64
	Data  []byte
}

// Chunk splits data into consecutive packets of at most MaxPacketSize
// bytes each.
func Chunk(data []byte) []Packet {
	packets := make([]Packet, 0, (len(data)+MaxPacketSize-1)/MaxPacketSize)
	for i := 0; i < len(data); i += MaxPacketSize {
		end := i + MaxPacketSize
		if end > len(data) {
			end = len(data)
		}
		chunk := make([]byte, end-i)
		copy(chunk, data[i:end])
		packets = append(packets, Packet{
			Order: uint64(i / MaxPacketSize),
			Data:  chunk,
		})
	}
	return packets
}

// Reassemble sorts the packets by order and concatenates their payloads.
// It does not detect gaps or duplicates; the caller must supply a
// complete, duplicate-free set.
func Reassemble(packets []Packet) []byte {
	sorted := make([]Packet, len(packets))
	copy(sorted, packets)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})

	var n int
	for _, p := range sorted {
		n += len(p.Data)
	}
	out := make([]byte, 0, n)
	for _, p := range sorted {
		out = append(out, p.Data...)
	}
	return out
}

// Marshal serializes the packet into its wire frame.
func (p Packet) Marshal() []byte {
	buf := make([]byte, HeaderLength+len(p.Data))
	binary.LittleEndian.PutUint64(buf[0:8], p.Order)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(len(p.Data)))
	copy(buf[HeaderLength:], p.Data)
	return buf
}

// Unmarshal parses a wire frame. A buffer shorter than its declared
// payload length yields ErrMalformedFrame.
func Unmarshal(buf []byte) (Packet, error) {
	if len(buf) < HeaderLength {
		return Packet{}, fmt.Errorf("%w: have %d bytes, need %d", ErrMalformedFrame, len(buf), HeaderLength)
	}
	order := binary.LittleEndian.Uint64(buf[0:8])
	length := binary.LittleEndian.Uint64(buf[8:16])
	if uint64(len(buf)-HeaderLength) < length {
		return Packet{}, fmt.Errorf("%w: have %d payload bytes, need %d", ErrMalformedFrame, len(buf)-HeaderLength, length)
	}
	data := make([]byte, length)
	copy(data, buf[HeaderLength:HeaderLength+int(length)])
	return Packet{Order: order, Data: data}, nil
}
