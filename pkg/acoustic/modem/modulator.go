package modem

import "fmt"

// Modulator turns nibbles and bytes into multi-tone symbol waveforms
// using the config's cached tone bank.
type Modulator struct {
	cfg *Config
}

func NewModulator(cfg *Config) *Modulator {
	return &Modulator{cfg: cfg}
}

// ModulateNibble emits one symbol: the sample-wise sum of every carrier
// whose bit is set in n, scaled down by the number of active carriers so
// all symbols share the same peak amplitude. The zero nibble is the
// all-zero waveform.
func (m *Modulator) ModulateNibble(n byte) ([]float64, error) {
	if n > 0x0f {
		return nil, fmt.Errorf("%w: nibble 0x%x", ErrInvalidSymbol, n)
	}

	out := make([]float64, m.cfg.SymbolLength())
	active := 0
	for bit := 0; bit < NumCarriers; bit++ {
		if n&(1<<bit) == 0 {
			continue
		}
		active++
		for i, s := range m.cfg.CarrierWave(bit) {
			out[i] += s
		}
	}
	if active > 1 {
		scale := 1 / float64(active)
		for i := range out {
			out[i] *= scale
		}
	}
	return out, nil
}

// ModulateByte emits the high nibble's symbol followed by the low
// nibble's; high bits travel first.
func (m *Modulator) ModulateByte(b byte) []float64 {
	high, _ := m.ModulateNibble(b >> 4)
	low, _ := m.ModulateNibble(b & 0x0f)
	return append(high, low...)
}

// ModulateBytes concatenates per-byte waveforms in input order.
func (m *Modulator) ModulateBytes(data []byte) []float64 {
	out := make([]float64, 0, 2*m.cfg.SymbolLength()*len(data))
	for _, b := range data {
		out = append(out, m.ModulateByte(b)...)
	}
	return out
}

// Preamble builds the synchronization header: the bit-0 tone followed by
// the bit-1 tone, with the pair repeated twice. It is prepended to every
// transmitted frame.
func (m *Modulator) Preamble() []float64 {
	out := make([]float64, 0, 4*m.cfg.SymbolLength())
	for i := 0; i < 2; i++ {
		out = append(out, m.cfg.PreambleWave(0)...)
		out = append(out, m.cfg.PreambleWave(1)...)
	}
	return out
}
