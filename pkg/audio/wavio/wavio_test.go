package wavio

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wav")

	samples := make([]float64, 441)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * 440 * float64(i) / 44100)
	}

	if err := Write(path, samples, 44100); err != nil {
		t.Fatal(err)
	}
	got, rate, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if rate != 44100 {
		t.Fatalf("sample rate %d", rate)
	}
	if len(got) != len(samples) {
		t.Fatalf("got %d samples, want %d", len(got), len(samples))
	}
	for i := range samples {
		// Emission narrows to float32; compare at that precision.
		if got[i] != float64(float32(samples[i])) {
			t.Fatalf("sample %d: got %v, want %v", i, got[i], float64(float32(samples[i])))
		}
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := os.WriteFile(path, []byte("definitely not a wav file"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Read(path); !errors.Is(err, ErrBadContainer) {
		t.Fatalf("got err %v, want ErrBadContainer", err)
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, _, err := Read(filepath.Join(t.TempDir(), "nope.wav")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestWriteEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.wav")
	if err := Write(path, nil, 44100); err != nil {
		t.Fatal(err)
	}
	got, rate, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 || rate != 44100 {
		t.Fatalf("got %d samples at %d Hz", len(got), rate)
	}
}
