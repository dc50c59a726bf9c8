package source

import (
	"context"
	"fmt"
	"sync"
)

// ErrClosed is returned once the producer has closed the buffer and the
// requested range can no longer be satisfied.
var ErrClosed = fmt.Errorf("source: capture buffer closed")

// CaptureBuffer is the shared sample buffer between the audio capture
// callback (producer) and the receiver loop (consumer). The producer
// appends under the lock; the consumer blocks on a condition variable
// until the requested range has been filled, with context cancellation
// as the escape hatch. Offsets are absolute from the start of the
// session; samples are retained so the receiver's cursor arithmetic
// stays valid for its lifetime.
type CaptureBuffer struct {
	mu      sync.Mutex
	cond    *sync.Cond
	samples []float64
	closed  bool
}

func NewCaptureBuffer() *CaptureBuffer {
	b := &CaptureBuffer{}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Append adds newly captured samples. No transformation happens on the
// producer side.
func (b *CaptureBuffer) Append(samples []float64) {
	b.mu.Lock()
	b.samples = append(b.samples, samples...)
	b.mu.Unlock()
	b.cond.Broadcast()
}

// AppendFloat32 widens and appends a capture-format sample block.
func (b *CaptureBuffer) AppendFloat32(samples []float32) {
	widened := make([]float64, len(samples))
	for i, s := range samples {
		widened[i] = float64(s)
	}
	b.Append(widened)
}

// Close marks the end of capture and wakes all blocked readers.
func (b *CaptureBuffer) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.cond.Broadcast()
}

// Len reports how many samples have been captured so far.
func (b *CaptureBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples)
}

// Tail copies out the most recent n samples, or fewer if the session is
// younger than that. Used by the debug viz plotters.
func (b *CaptureBuffer) Tail(n int) []float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n > len(b.samples) {
		n = len(b.samples)
	}
	out := make([]float64, n)
	copy(out, b.samples[len(b.samples)-n:])
	return out
}

// ReadSamples blocks until offsets [start, end) have been captured, then
// copies them out. It returns ctx.Err() if the context is cancelled
// while waiting and ErrClosed if capture ends before the range fills.
func (b *CaptureBuffer) ReadSamples(ctx context.Context, start, end int) ([]float64, error) {
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: [%d, %d)", ErrInvalidRange, start, end)
	}

	stop := context.AfterFunc(ctx, b.cond.Broadcast)
	defer stop()

	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.samples) < end && !b.closed && ctx.Err() == nil {
		b.cond.Wait()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(b.samples) < end {
		return nil, fmt.Errorf("%w: [%d, %d) of %d", ErrClosed, start, end, len(b.samples))
	}
	out := make([]float64, end-start)
	copy(out, b.samples[start:end])
	return out, nil
}
