package modem

import "fmt"

// Demodulator inverts the multi-tone mapping by spectral analysis. It is
// exact on a noiseless channel; the energy tolerance absorbs small
// amplitude jitter but there is no correction for missing or spurious
// tones beyond it.
type Demodulator struct {
	cfg *Config
}

func NewDemodulator(cfg *Config) *Demodulator {
	return &Demodulator{cfg: cfg}
}

// DemodulateNibble analyzes one symbol waveform, takes the column at the
// temporal midpoint, and ORs together the bit of every dominant
// frequency that maps to a configured carrier.
func (d *Demodulator) DemodulateNibble(samples []float64) (byte, error) {
	an := d.cfg.Analyzer()
	cols := an.Columns(samples)
	if len(cols) == 0 {
		return 0, fmt.Errorf("modem: symbol waveform of %d samples is shorter than one analysis window", len(samples))
	}

	var n byte
	for _, freq := range an.Dominant(cols[len(cols)/2], d.cfg.EnergyTolerance()) {
		if bit, ok := d.cfg.CarrierBit(freq); ok {
			n |= 1 << bit
		}
	}
	return n, nil
}

// DemodulateByte treats the first half of the waveform as the high
// nibble and the second half as the low nibble.
func (d *Demodulator) DemodulateByte(samples []float64) (byte, error) {
	if len(samples) < 2*d.cfg.SymbolLength() {
		return 0, fmt.Errorf("modem: byte waveform has %d samples, need %d", len(samples), 2*d.cfg.SymbolLength())
	}
	high, err := d.DemodulateNibble(samples[:d.cfg.SymbolLength()])
	if err != nil {
		return 0, err
	}
	low, err := d.DemodulateNibble(samples[d.cfg.SymbolLength() : 2*d.cfg.SymbolLength()])
	if err != nil {
		return 0, err
	}
	return high<<4 | low, nil
}
