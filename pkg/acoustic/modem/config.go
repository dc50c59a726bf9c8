// Package modem maps bytes onto summed multi-tone waveforms and back.
// Each nibble occupies one fixed-duration symbol; the subset of
// simultaneously active carrier frequencies encodes which bits are set.
package modem

import (
	"fmt"
	"math"
	"sort"

	"github.com/Wang-Ji20/acousticdi/pkg/dsp/stft"
)

const (
	// DefaultSampleRate is the only rate the link is designed for.
	DefaultSampleRate = 44100

	// DefaultSymbolDuration is the on-air time of one nibble symbol.
	DefaultSymbolDuration = 0.1

	// NumCarriers is the number of data carrier tones; one per nibble bit.
	NumCarriers = 4

	defaultWindowSize = 128
	defaultHopSize    = 128

	// DefaultEnergyTolerance is the absolute linear-energy spread allowed
	// inside one dominant-tone cluster.
	DefaultEnergyTolerance = 3.0
)

// Carrier and preamble tones sit on exact analysis bins of the default
// 128-sample window, at least two bins apart so the Hann main lobes of
// co-active tones never land on each other's bins.
var (
	defaultCarrierBins  = [NumCarriers]int{4, 6, 8, 10}
	defaultPreambleBins = [2]int{14, 16}
)

// Config carries the modem parameters and the tone bank built from them.
// It is constructed once at startup and shared read-only by modulation,
// demodulation and preamble detection; nothing mutates it afterwards.
type Config struct {
	sampleRate      int
	symbolLength    int
	energyTolerance float64

	analyzer *stft.Analyzer

	carrierFreqs  []float64 // sorted ascending, index = bit position
	preambleFreqs [2]float64

	carrierWaves  [NumCarriers][]float64
	preambleWaves [2][]float64
}

// NewConfig builds the modem configuration and its tone bank for the
// fixed default transform parameters.
func NewConfig() *Config {
	c := &Config{
		sampleRate:      DefaultSampleRate,
		symbolLength:    int(DefaultSymbolDuration * DefaultSampleRate),
		energyTolerance: DefaultEnergyTolerance,
		analyzer:        stft.NewAnalyzer(DefaultSampleRate, defaultWindowSize, defaultHopSize),
	}

	binHz := float64(c.sampleRate) / float64(defaultWindowSize)
	c.carrierFreqs = make([]float64, NumCarriers)
	for i, bin := range defaultCarrierBins {
		c.carrierFreqs[i] = float64(bin) * binHz
		c.carrierWaves[i] = sineWave(c.carrierFreqs[i], 1.0, c.sampleRate, c.symbolLength)
	}
	for i, bin := range defaultPreambleBins {
		c.preambleFreqs[i] = float64(bin) * binHz
		c.preambleWaves[i] = sineWave(c.preambleFreqs[i], 1.0, c.sampleRate, c.symbolLength)
	}
	return c
}

func sineWave(freq, amplitude float64, sampleRate, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		t := float64(i) / float64(sampleRate)
		out[i] = amplitude * math.Sin(2*math.Pi*freq*t)
	}
	return out
}

// SampleRate returns the fixed sample rate in Hz.
func (c *Config) SampleRate() int { return c.sampleRate }

// SymbolLength returns the number of samples in one nibble symbol.
func (c *Config) SymbolLength() int { return c.symbolLength }

// EnergyTolerance returns the dominant-cluster energy tolerance.
func (c *Config) EnergyTolerance() float64 { return c.energyTolerance }

// Analyzer returns the shared spectral analyzer.
func (c *Config) Analyzer() *stft.Analyzer { return c.analyzer }

// CarrierWave returns the cached reference waveform for carrier bit.
func (c *Config) CarrierWave(bit int) []float64 { return c.carrierWaves[bit] }

// PreambleWave returns the cached reference waveform for preamble bit 0
// or 1.
func (c *Config) PreambleWave(bit int) []float64 { return c.preambleWaves[bit] }

// PreambleFreq returns the reserved preamble frequency for bit 0 or 1.
func (c *Config) PreambleFreq(bit int) float64 { return c.preambleFreqs[bit] }

// CarrierBit maps an analyzed frequency back to its carrier bit position
// by binary search over the sorted carrier table. Frequencies that match
// no configured carrier report ok=false and are ignored by demodulation.
func (c *Config) CarrierBit(freq float64) (int, bool) {
	i := sort.SearchFloat64s(c.carrierFreqs, freq-freqMatchTolerance)
	if i < len(c.carrierFreqs) && math.Abs(c.carrierFreqs[i]-freq) <= freqMatchTolerance {
		return i, true
	}
	return 0, false
}

const freqMatchTolerance = 1e-6

// ErrInvalidSymbol reports an out-of-domain value passed to single-symbol
// modulation. This is a caller contract violation, not a channel
// condition.
var ErrInvalidSymbol = fmt.Errorf("modem: symbol value out of range")
