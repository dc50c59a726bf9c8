package modem

import (
	"errors"
	"testing"
)

func TestNibbleRoundTrip(t *testing.T) {
	cfg := NewConfig()
	mod := NewModulator(cfg)
	dem := NewDemodulator(cfg)

	for n := byte(0); n < 16; n++ {
		wave, err := mod.ModulateNibble(n)
		if err != nil {
			t.Fatalf("nibble %d: %v", n, err)
		}
		if len(wave) != cfg.SymbolLength() {
			t.Fatalf("nibble %d: waveform length %d, want %d", n, len(wave), cfg.SymbolLength())
		}
		got, err := dem.DemodulateNibble(wave)
		if err != nil {
			t.Fatalf("nibble %d: %v", n, err)
		}
		if got != n {
			t.Errorf("nibble round trip: got %d, want %d", got, n)
		}
	}
}

func TestByteRoundTrip(t *testing.T) {
	cfg := NewConfig()
	mod := NewModulator(cfg)
	dem := NewDemodulator(cfg)

	for b := 0; b < 256; b++ {
		wave := mod.ModulateByte(byte(b))
		if len(wave) != 2*cfg.SymbolLength() {
			t.Fatalf("byte %d: waveform length %d", b, len(wave))
		}
		got, err := dem.DemodulateByte(wave)
		if err != nil {
			t.Fatalf("byte %d: %v", b, err)
		}
		if got != byte(b) {
			t.Errorf("byte round trip: got 0x%02x, want 0x%02x", got, b)
		}
	}
}

func TestBytesRoundTrip(t *testing.T) {
	cfg := NewConfig()
	mod := NewModulator(cfg)
	dem := NewDemodulator(cfg)

	data := []byte("hello world")
	wave := mod.ModulateBytes(data)
	if len(wave) != 2*cfg.SymbolLength()*len(data) {
		t.Fatalf("waveform length %d", len(wave))
	}

	byteLen := 2 * cfg.SymbolLength()
	for i, want := range data {
		got, err := dem.DemodulateByte(wave[i*byteLen : (i+1)*byteLen])
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("byte %d: got 0x%02x, want 0x%02x", i, got, want)
		}
	}
}

func TestModulateNibbleOutOfRange(t *testing.T) {
	mod := NewModulator(NewConfig())
	for _, n := range []byte{16, 0x20, 0xff} {
		if _, err := mod.ModulateNibble(n); !errors.Is(err, ErrInvalidSymbol) {
			t.Errorf("nibble 0x%x: got err %v, want ErrInvalidSymbol", n, err)
		}
	}
}

func TestZeroNibbleIsSilence(t *testing.T) {
	mod := NewModulator(NewConfig())
	wave, err := mod.ModulateNibble(0)
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range wave {
		if s != 0 {
			t.Fatalf("sample %d is %v, want 0", i, s)
		}
	}
}

func TestPreambleLayout(t *testing.T) {
	cfg := NewConfig()
	mod := NewModulator(cfg)
	pre := mod.Preamble()
	if len(pre) != 4*cfg.SymbolLength() {
		t.Fatalf("preamble length %d, want %d", len(pre), 4*cfg.SymbolLength())
	}
	// Tone order is 0,1,0,1: the second pair repeats the first.
	half := len(pre) / 2
	for i := 0; i < half; i++ {
		if pre[i] != pre[half+i] {
			t.Fatalf("preamble pairs differ at sample %d", i)
		}
	}
}

func TestCarrierBitLookup(t *testing.T) {
	cfg := NewConfig()
	binHz := float64(cfg.SampleRate()) / float64(cfg.Analyzer().WindowSize())

	for bit, bin := range defaultCarrierBins {
		got, ok := cfg.CarrierBit(float64(bin) * binHz)
		if !ok || got != bit {
			t.Errorf("carrier bin %d: got (%d, %v), want (%d, true)", bin, got, ok, bit)
		}
	}
	if _, ok := cfg.CarrierBit(cfg.PreambleFreq(0)); ok {
		t.Error("preamble frequency resolved to a carrier bit")
	}
	if _, ok := cfg.CarrierBit(123.456); ok {
		t.Error("arbitrary frequency resolved to a carrier bit")
	}
}
