// Package sync finds and confirms the transmitted preamble in a live
// sample stream, then decodes frame payloads once bit lock is declared.
package sync

import (
	"math"

	"github.com/Wang-Ji20/acousticdi/pkg/acoustic/modem"
)

// Outcome is the result of probing one window for preamble energy.
// Detected=false means the probe held no preamble votes at all; that is
// normal control flow, not an error.
type Outcome struct {
	Detected bool
	// Bit is the preamble bit of the pure leading vote run.
	Bit int
	// Votes counts the columns in that run.
	Votes int
	// EndingOffset is the sample offset within the probe where the scan
	// stopped: the start of the first conflicting column, or the end of
	// the analyzed region when no conflict occurred.
	EndingOffset int
}

// Detector classifies analysis columns against the two reserved
// preamble frequencies.
type Detector struct {
	cfg *modem.Config
}

func NewDetector(cfg *modem.Config) *Detector {
	return &Detector{cfg: cfg}
}

// classify returns the preamble bit a column votes for, or -1 for no
// vote. Only the top dominant frequency counts.
func (d *Detector) classify(doms []float64) int {
	if len(doms) == 0 {
		return -1
	}
	for bit := 0; bit < 2; bit++ {
		if math.Abs(doms[0]-d.cfg.PreambleFreq(bit)) < 1e-6 {
			return bit
		}
	}
	return -1
}

// Detect scans the probe's columns in time order and accumulates a
// monotone vote run: once a column has voted for one bit, the first
// column voting for the opposite bit terminates the scan, and only the
// pure run before it is reported.
func (d *Detector) Detect(probe []float64) Outcome {
	an := d.cfg.Analyzer()
	cols := an.Columns(probe)

	run := Outcome{Bit: -1}
	for i, col := range cols {
		bit := d.classify(an.Dominant(col, d.cfg.EnergyTolerance()))
		switch {
		case bit < 0:
			// Silence or payload energy; never breaks a run.
		case run.Bit < 0:
			run.Detected = true
			run.Bit = bit
			run.Votes = 1
		case bit == run.Bit:
			run.Votes++
		default:
			// Conflicting vote: stop before this column.
			run.EndingOffset = an.ColumnOffset(i)
			return run
		}
	}
	run.EndingOffset = an.NumColumns(len(probe)) * an.HopSize()
	return run
}
