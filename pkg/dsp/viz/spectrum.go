package viz

import (
	"bytes"
	"math"
	"sync"

	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const powerAvg = 0.10 // exponential averaging factor between renders

// SpectrumPlotter renders the power spectrum of the most recent window
// of the capture stream. The carriers and preamble tones show up as
// stable peaks when a transmission is in the air.
type SpectrumPlotter struct {
	mu           sync.Mutex
	buf          []float64
	size         int
	sampleRate   int
	name         string
	fft          *fourier.FFT
	win          []float64
	averagePower []float64
	plotOptions  []PlotOptions
}

func NewSpectrumPlotter(name string, size, sampleRate int) *SpectrumPlotter {
	return &SpectrumPlotter{
		buf:          make([]float64, size),
		size:         size,
		sampleRate:   sampleRate,
		name:         name,
		fft:          fourier.NewFFT(size),
		win:          window.Hann(size),
		averagePower: make([]float64, size/2+1),
	}
}

func (sp *SpectrumPlotter) Name() string {
	return sp.name
}

func (sp *SpectrumPlotter) AddPlotOption(opt PlotOptions) {
	sp.plotOptions = append(sp.plotOptions, opt)
}

// Append keeps only the trailing size samples.
func (sp *SpectrumPlotter) Append(s []float64) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if len(s) >= sp.size {
		copy(sp.buf, s[len(s)-sp.size:])
		return
	}
	sp.buf = append(sp.buf, s...)
	sp.buf = sp.buf[len(s):]
}

func (sp *SpectrumPlotter) GetImage() *ImageContainer {
	sp.mu.Lock()
	data := make([]float64, sp.size)
	for i, s := range sp.buf {
		data[i] = s * sp.win[i]
	}
	sp.mu.Unlock()

	p := plotWithDefaults()
	p.Title.Text = sp.name
	p.X.Label.Text = "Frequency (Hz)"
	p.Y.Label.Text = "Power (dB)"
	p.Y.Min = -100
	p.Y.Max = 40

	for _, opt := range sp.plotOptions {
		opt(p)
	}

	p.Add(plotter.NewGrid())

	coeffs := sp.fft.Coefficients(nil, data)
	pts := make(plotter.XYs, len(coeffs))
	for i, c := range coeffs {
		mag := math.Hypot(real(c), imag(c))
		sp.averagePower[i] = (1.0-powerAvg)*sp.averagePower[i] + powerAvg*mag
		db := -100.0
		if sp.averagePower[i] > 0 {
			db = 20 * math.Log10(sp.averagePower[i])
		}
		pts[i] = plotter.XY{
			X: sp.fft.Freq(i) * float64(sp.sampleRate),
			Y: db,
		}
	}
	if err := plotutil.AddLines(p, "power", pts); err != nil {
		return nil
	}

	var imageData bytes.Buffer
	w, err := p.WriterTo(8*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return nil
	}
	if _, err := w.WriteTo(&imageData); err != nil {
		return nil
	}
	return &ImageContainer{name: sp.name, data: imageData.Bytes()}
}
