// Package transmit assembles the full on-air waveform for a byte
// stream: per frame, a preamble followed by the modulated wire bytes,
// with a short silent guard so receivers can finish the trailing symbol
// before the stream ends.
package transmit

import (
	"github.com/rs/zerolog"

	"github.com/Wang-Ji20/acousticdi/pkg/acoustic/frame"
	"github.com/Wang-Ji20/acousticdi/pkg/acoustic/modem"
)

// guardSymbols is the silent tail appended after each frame, in symbol
// lengths. It bounds receiver overrun caused by probe-granular preamble
// alignment.
const guardSymbols = 1

// Transmitter chunks byte buffers into packets and modulates each
// packet's wire frame behind its own preamble.
type Transmitter struct {
	cfg    *modem.Config
	mod    *modem.Modulator
	logger zerolog.Logger
}

type Option func(*Transmitter)

func WithLogger(logger zerolog.Logger) Option {
	return func(t *Transmitter) {
		t.logger = logger
	}
}

func NewTransmitter(cfg *modem.Config, opts ...Option) *Transmitter {
	t := &Transmitter{
		cfg:    cfg,
		mod:    modem.NewModulator(cfg),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// FrameWaveform modulates a single packet: preamble, wire frame, guard.
func (t *Transmitter) FrameWaveform(p frame.Packet) []float64 {
	wire := p.Marshal()
	out := t.mod.Preamble()
	out = append(out, t.mod.ModulateBytes(wire)...)
	out = append(out, make([]float64, guardSymbols*t.cfg.SymbolLength())...)
	return out
}

// Waveform chunks data into packets and concatenates their frame
// waveforms in order.
func (t *Transmitter) Waveform(data []byte) []float64 {
	packets := frame.Chunk(data)
	var out []float64
	for _, p := range packets {
		out = append(out, t.FrameWaveform(p)...)
	}
	t.logger.Info().
		Int("bytes", len(data)).
		Int("packets", len(packets)).
		Int("samples", len(out)).
		Msg("built transmission waveform")
	return out
}
