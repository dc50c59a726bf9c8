package source

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemorySourceRead(t *testing.T) {
	src := NewMemorySource([]float64{0, 1, 2, 3, 4})

	got, err := src.ReadSamples(context.Background(), 1, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("got %v", got)
	}
}

func TestMemorySourceErrors(t *testing.T) {
	src := NewMemorySource(make([]float64, 10))
	tests := []struct {
		name       string
		start, end int
		want       error
	}{
		{"beyond end", 5, 20, ErrShortRead},
		{"empty range", 3, 3, ErrInvalidRange},
		{"inverted range", 4, 2, ErrInvalidRange},
		{"negative start", -1, 5, ErrInvalidRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := src.ReadSamples(context.Background(), tt.start, tt.end); !errors.Is(err, tt.want) {
				t.Fatalf("got err %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCaptureBufferBlocksUntilFilled(t *testing.T) {
	buf := NewCaptureBuffer()

	go func() {
		for i := 0; i < 4; i++ {
			time.Sleep(5 * time.Millisecond)
			buf.Append([]float64{float64(i), float64(i)})
		}
	}()

	got, err := buf.ReadSamples(context.Background(), 2, 8)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 1, 2, 2, 3, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestCaptureBufferContextCancel(t *testing.T) {
	buf := NewCaptureBuffer()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := buf.ReadSamples(ctx, 0, 100)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got err %v, want deadline exceeded", err)
	}
}

func TestCaptureBufferClose(t *testing.T) {
	buf := NewCaptureBuffer()
	buf.Append([]float64{1, 2, 3})

	done := make(chan error, 1)
	go func() {
		_, err := buf.ReadSamples(context.Background(), 0, 10)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	buf.Close()

	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("got err %v, want ErrClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("reader did not unblock after Close")
	}

	// Ranges already captured stay readable after close.
	got, err := buf.ReadSamples(context.Background(), 0, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[2] != 3 {
		t.Fatalf("got %v", got)
	}
}

func TestCaptureBufferTail(t *testing.T) {
	buf := NewCaptureBuffer()
	buf.AppendFloat32([]float32{1, 2, 3, 4})

	if got := buf.Tail(2); len(got) != 2 || got[0] != 3 || got[1] != 4 {
		t.Fatalf("got %v", got)
	}
	if got := buf.Tail(10); len(got) != 4 {
		t.Fatalf("got %d samples, want 4", len(got))
	}
	if buf.Len() != 4 {
		t.Fatalf("Len = %d", buf.Len())
	}
}
