package sync

import (
	"testing"

	"github.com/Wang-Ji20/acousticdi/pkg/acoustic/modem"
)

func TestDetectPurePreamble(t *testing.T) {
	cfg := modem.NewConfig()
	det := NewDetector(cfg)
	an := cfg.Analyzer()

	for bit := 0; bit < 2; bit++ {
		probe := cfg.PreambleWave(bit)[:512]
		o := det.Detect(probe)
		if !o.Detected {
			t.Fatalf("bit %d: no detection", bit)
		}
		if o.Bit != bit {
			t.Fatalf("bit %d: detected bit %d", bit, o.Bit)
		}
		if want := an.NumColumns(len(probe)); o.Votes != want {
			t.Fatalf("bit %d: votes %d, want %d columns", bit, o.Votes, want)
		}
		if want := an.NumColumns(len(probe)) * an.HopSize(); o.EndingOffset != want {
			t.Fatalf("bit %d: ending offset %d, want %d", bit, o.EndingOffset, want)
		}
	}
}

func TestDetectSilence(t *testing.T) {
	det := NewDetector(modem.NewConfig())
	if o := det.Detect(make([]float64, 512)); o.Detected {
		t.Fatalf("silence detected as preamble: %+v", o)
	}
}

func TestDetectCarrierIsNotPreamble(t *testing.T) {
	cfg := modem.NewConfig()
	det := NewDetector(cfg)
	if o := det.Detect(cfg.CarrierWave(2)[:512]); o.Detected {
		t.Fatalf("data carrier detected as preamble: %+v", o)
	}
}

func TestDetectMonotoneConflict(t *testing.T) {
	cfg := modem.NewConfig()
	det := NewDetector(cfg)
	an := cfg.Analyzer()

	// First half bit 0 energy, second half bit 1: the scan must report
	// only the pure leading run and stop at the boundary.
	const half = 512
	probe := make([]float64, 0, 2*half)
	probe = append(probe, cfg.PreambleWave(0)[:half]...)
	probe = append(probe, cfg.PreambleWave(1)[:half]...)

	o := det.Detect(probe)
	if !o.Detected || o.Bit != 0 {
		t.Fatalf("got %+v, want detection of bit 0", o)
	}
	wantVotes := an.NumColumns(half)
	if o.Votes != wantVotes {
		t.Fatalf("votes %d, want %d (first half only)", o.Votes, wantVotes)
	}
	if o.EndingOffset != half {
		t.Fatalf("ending offset %d, want boundary %d", o.EndingOffset, half)
	}
}

func TestDetectIgnoresSilentColumnsInsideRun(t *testing.T) {
	cfg := modem.NewConfig()
	det := NewDetector(cfg)

	// Tone, gap, tone of the same bit: silence must not break the run.
	probe := make([]float64, 0, 768)
	probe = append(probe, cfg.PreambleWave(1)[:256]...)
	probe = append(probe, make([]float64, 256)...)
	probe = append(probe, cfg.PreambleWave(1)[:256]...)

	o := det.Detect(probe)
	if !o.Detected || o.Bit != 1 {
		t.Fatalf("got %+v", o)
	}
	if o.Votes != 4 {
		t.Fatalf("votes %d, want 4 (two tone segments of two columns)", o.Votes)
	}
}
