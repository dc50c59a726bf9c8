// Package stft runs a short-time frequency transform over real-valued
// waveforms and extracts the dominant tone cluster per analysis column.
package stft

import (
	"math"
	"sort"

	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Column holds the log-magnitude (dB) of every frequency bin for one
// analysis window.
type Column []float64

// Analyzer slides a fixed-length smoothing window over a waveform and
// produces one spectral column per hop. The bin-to-frequency table is
// derived once from the transform configuration and never mutated.
type Analyzer struct {
	windowSize int
	hopSize    int
	sampleRate int
	win        []float64
	fft        *fourier.FFT
	binFreqs   []float64
}

func NewAnalyzer(sampleRate, windowSize, hopSize int) *Analyzer {
	a := &Analyzer{
		windowSize: windowSize,
		hopSize:    hopSize,
		sampleRate: sampleRate,
		win:        window.Hann(windowSize),
		fft:        fourier.NewFFT(windowSize),
	}
	a.binFreqs = make([]float64, windowSize/2+1)
	for i := range a.binFreqs {
		a.binFreqs[i] = a.fft.Freq(i) * float64(sampleRate)
	}
	return a
}

// WindowSize returns the analysis window length in samples.
func (a *Analyzer) WindowSize() int { return a.windowSize }

// HopSize returns the window advance in samples between columns.
func (a *Analyzer) HopSize() int { return a.hopSize }

// NumColumns reports how many columns Columns will produce for n samples.
func (a *Analyzer) NumColumns(n int) int {
	if n < a.windowSize {
		return 0
	}
	return (n-a.windowSize)/a.hopSize + 1
}

// ColumnOffset returns the sample offset at which column i begins.
func (a *Analyzer) ColumnOffset(i int) int { return i * a.hopSize }

// BinFreq returns the center frequency of bin i in Hz.
func (a *Analyzer) BinFreq(i int) float64 { return a.binFreqs[i] }

// NumBins returns the number of frequency bins per column.
func (a *Analyzer) NumBins() int { return len(a.binFreqs) }

// Columns transforms the waveform into time-ordered spectral columns.
// Trailing samples shorter than one window are discarded.
func (a *Analyzer) Columns(samples []float64) []Column {
	n := a.NumColumns(len(samples))
	cols := make([]Column, 0, n)
	buf := make([]float64, a.windowSize)
	for i := 0; i < n; i++ {
		off := a.ColumnOffset(i)
		for j := 0; j < a.windowSize; j++ {
			buf[j] = samples[off+j] * a.win[j]
		}
		coeffs := a.fft.Coefficients(nil, buf)
		col := make(Column, len(coeffs))
		for j, c := range coeffs {
			mag := math.Hypot(real(c), imag(c))
			col[j] = 20 * math.Log10(mag)
		}
		cols = append(cols, col)
	}
	return cols
}

// Dominant ranks the column's bins by linear energy and returns the
// frequencies of the leading cluster: starting from the strongest bin it
// keeps adding the next bin while its energy stays within tol of the
// previously kept bin, stopping at the first bin outside the tolerance.
// A column whose strongest bin does not rise above tol yields no
// frequencies at all, so silence never produces a cluster.
func (a *Analyzer) Dominant(col Column, tol float64) []float64 {
	idx := make([]int, len(col))
	for i := range idx {
		idx[i] = i
	}
	energy := make([]float64, len(col))
	for i, db := range col {
		energy[i] = math.Pow(10, db/20)
	}
	sort.Slice(idx, func(i, j int) bool {
		return energy[idx[i]] > energy[idx[j]]
	})

	if len(idx) == 0 || energy[idx[0]] <= tol {
		return nil
	}

	freqs := []float64{a.binFreqs[idx[0]]}
	for i := 1; i < len(idx); i++ {
		if energy[idx[i-1]]-energy[idx[i]] > tol {
			break
		}
		freqs = append(freqs, a.binFreqs[idx[i]])
	}
	return freqs
}
