package frame

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

func TestChunkReassembleRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{"empty", 0},
		{"short", 11},
		{"exact boundary", MaxPacketSize},
		{"two full packets", 2 * MaxPacketSize},
		{"uneven", 3*MaxPacketSize + 17},
		{"large", 64 * MaxPacketSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]byte, tt.size)
			rand.New(rand.NewSource(1)).Read(data)

			packets := Chunk(data)
			got := Reassemble(packets)
			if !bytes.Equal(got, data) {
				t.Fatalf("round trip mismatch: got %d bytes, want %d", len(got), len(data))
			}
			for i, p := range packets {
				if p.Order != uint64(i) {
					t.Errorf("packet %d has order %d", i, p.Order)
				}
				if len(p.Data) > MaxPacketSize {
					t.Errorf("packet %d has %d bytes", i, len(p.Data))
				}
			}
		})
	}
}

func TestHelloWorldSinglePacket(t *testing.T) {
	data := []byte("hello world")
	packets := Chunk(data)
	if len(packets) != 1 {
		t.Fatalf("got %d packets, want 1", len(packets))
	}
	if packets[0].Order != 0 || len(packets[0].Data) != 11 {
		t.Fatalf("got order=%d len=%d", packets[0].Order, len(packets[0].Data))
	}

	wire := packets[0].Marshal()
	if len(wire) != 27 {
		t.Fatalf("serialized frame is %d bytes, want 27", len(wire))
	}

	parsed, err := Unmarshal(wire)
	if err != nil {
		t.Fatal(err)
	}
	if got := Reassemble([]Packet{parsed}); !bytes.Equal(got, data) {
		t.Fatalf("got %q", got)
	}
}

func Test256BytesTwoPackets(t *testing.T) {
	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i)
	}
	packets := Chunk(data)
	if len(packets) != 2 {
		t.Fatalf("got %d packets, want 2", len(packets))
	}
	for i, p := range packets {
		if p.Order != uint64(i) {
			t.Errorf("packet %d has order %d", i, p.Order)
		}
		if len(p.Data) != MaxPacketSize {
			t.Errorf("packet %d has %d bytes, want %d", i, len(p.Data), MaxPacketSize)
		}
	}
}

func TestWireRoundTripShuffled(t *testing.T) {
	data := make([]byte, 5*MaxPacketSize+42)
	rng := rand.New(rand.NewSource(7))
	rng.Read(data)

	packets := Chunk(data)
	frames := make([][]byte, len(packets))
	for i, p := range packets {
		frames[i] = p.Marshal()
	}
	rng.Shuffle(len(frames), func(i, j int) {
		frames[i], frames[j] = frames[j], frames[i]
	})

	parsed := make([]Packet, 0, len(frames))
	for _, f := range frames {
		p, err := Unmarshal(f)
		if err != nil {
			t.Fatal(err)
		}
		parsed = append(parsed, p)
	}

	if got := Reassemble(parsed); !bytes.Equal(got, data) {
		t.Fatal("shuffled wire round trip mismatch")
	}
}

func TestUnmarshalMalformed(t *testing.T) {
	full := Packet{Order: 3, Data: []byte("some payload bytes")}.Marshal()

	tests := []struct {
		name string
		buf  []byte
	}{
		{"empty", nil},
		{"short header", full[:10]},
		{"truncated payload", full[:len(full)-1]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Unmarshal(tt.buf); !errors.Is(err, ErrMalformedFrame) {
				t.Fatalf("got err %v, want ErrMalformedFrame", err)
			}
		})
	}
}

func TestUnmarshalIgnoresTrailingBytes(t *testing.T) {
	p := Packet{Order: 1, Data: []byte{0xde, 0xad}}
	buf := append(p.Marshal(), 0xff, 0xff)
	got, err := Unmarshal(buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Order != 1 || !bytes.Equal(got.Data, p.Data) {
		t.Fatalf("got %+v", got)
	}
}
