// Package source abstracts where the receiver's samples come from: a
// live capture buffer fed by the audio device, or a fixed in-memory
// waveform for deterministic tests.
package source

import (
	"context"
	"fmt"
)

// ErrShortRead is returned by bounded sources when the requested range
// extends past the samples that will ever be available.
var ErrShortRead = fmt.Errorf("source: requested range beyond available samples")

// ErrInvalidRange is returned for requests with end <= start or a
// negative start.
var ErrInvalidRange = fmt.Errorf("source: invalid sample range")

// SampleSource yields exactly end-start samples for offsets [start, end),
// blocking until that many have been produced. Implementations must
// honor context cancellation while blocked.
type SampleSource interface {
	ReadSamples(ctx context.Context, start, end int) ([]float64, error)
}

// MemorySource serves a fixed waveform. Requests past the end fail
// immediately with ErrShortRead, which receivers treat as end of
// transmission.
type MemorySource struct {
	samples []float64
}

func NewMemorySource(samples []float64) *MemorySource {
	return &MemorySource{samples: samples}
}

func (m *MemorySource) ReadSamples(_ context.Context, start, end int) ([]float64, error) {
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: [%d, %d)", ErrInvalidRange, start, end)
	}
	if end > len(m.samples) {
		return nil, fmt.Errorf("%w: [%d, %d) of %d", ErrShortRead, start, end, len(m.samples))
	}
	out := make([]float64, end-start)
	copy(out, m.samples[start:end])
	return out, nil
}
