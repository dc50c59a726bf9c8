// Package wavio reads and writes the debugging/persistence container:
// mono, 44100 Hz, 32-bit IEEE-float PCM WAV. Samples round trip
// float-to-float in emission order with no scaling.
package wavio

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

const (
	formatIEEEFloat = 3
	numChannels     = 1
	bitsPerSample   = 32
	bytesPerSample  = bitsPerSample / 8
)

// ErrBadContainer is returned for files that are not the fixed format
// this system emits.
var ErrBadContainer = fmt.Errorf("wavio: not a mono 32-bit float PCM container")

// Write encodes the waveform to path at the given sample rate.
func Write(path string, samples []float64, sampleRate int) error {
	dataLen := len(samples) * bytesPerSample

	buf := make([]byte, 0, 58+dataLen)
	le := binary.LittleEndian

	u32 := func(v uint32) {
		var b [4]byte
		le.PutUint32(b[:], v)
		buf = append(buf, b[:]...)
	}
	u16 := func(v uint16) {
		var b [2]byte
		le.PutUint16(b[:], v)
		buf = append(buf, b[:]...)
	}

	buf = append(buf, "RIFF"...)
	u32(uint32(50 + dataLen)) // remaining bytes after this field
	buf = append(buf, "WAVE"...)

	buf = append(buf, "fmt "...)
	u32(18)
	u16(formatIEEEFloat)
	u16(numChannels)
	u32(uint32(sampleRate))
	u32(uint32(sampleRate * numChannels * bytesPerSample))
	u16(numChannels * bytesPerSample)
	u16(bitsPerSample)
	u16(0) // no format extension

	buf = append(buf, "fact"...)
	u32(4)
	u32(uint32(len(samples)))

	buf = append(buf, "data"...)
	u32(uint32(dataLen))
	for _, s := range samples {
		var b [4]byte
		le.PutUint32(b[:], math.Float32bits(float32(s)))
		buf = append(buf, b[:]...)
	}

	return os.WriteFile(path, buf, 0o644)
}

// Read decodes a file written by Write (or any mono float32 WAV) and
// returns the samples and sample rate.
func Read(path string) ([]float64, int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	if len(raw) < 12 || string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("%w: missing RIFF/WAVE header", ErrBadContainer)
	}
	le := binary.LittleEndian

	var sampleRate int
	var haveFmt bool
	var samples []float64

	for off := 12; off+8 <= len(raw); {
		id := string(raw[off : off+4])
		size := int(le.Uint32(raw[off+4 : off+8]))
		body := off + 8
		if body+size > len(raw) {
			return nil, 0, fmt.Errorf("%w: truncated %q chunk", ErrBadContainer, id)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, fmt.Errorf("%w: short fmt chunk", ErrBadContainer)
			}
			format := le.Uint16(raw[body : body+2])
			channels := le.Uint16(raw[body+2 : body+4])
			bits := le.Uint16(raw[body+14 : body+16])
			if format != formatIEEEFloat || channels != numChannels || bits != bitsPerSample {
				return nil, 0, fmt.Errorf("%w: format=%d channels=%d bits=%d", ErrBadContainer, format, channels, bits)
			}
			sampleRate = int(le.Uint32(raw[body+4 : body+8]))
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, 0, fmt.Errorf("%w: data chunk before fmt", ErrBadContainer)
			}
			samples = make([]float64, 0, size/bytesPerSample)
			for i := body; i+bytesPerSample <= body+size; i += bytesPerSample {
				bits := le.Uint32(raw[i : i+bytesPerSample])
				samples = append(samples, float64(math.Float32frombits(bits)))
			}
		}

		off = body + size
		if size%2 == 1 {
			off++ // chunks are word aligned
		}
	}

	if !haveFmt || samples == nil {
		return nil, 0, fmt.Errorf("%w: missing fmt or data chunk", ErrBadContainer)
	}
	return samples, sampleRate, nil
}
