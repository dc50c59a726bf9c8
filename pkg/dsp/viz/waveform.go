package viz

import (
	"bytes"
	"sync"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// WaveformPlotter renders the most recent window of the capture stream
// in the time domain.
type WaveformPlotter struct {
	mu          sync.Mutex
	buf         []float64
	size        int
	name        string
	plotOptions []PlotOptions
}

func NewWaveformPlotter(name string, size int) *WaveformPlotter {
	return &WaveformPlotter{
		name: name,
		size: size,
	}
}

func (wp *WaveformPlotter) Name() string {
	return wp.name
}

func (wp *WaveformPlotter) AddPlotOption(opt PlotOptions) {
	wp.plotOptions = append(wp.plotOptions, opt)
}

// Append keeps only the trailing size samples.
func (wp *WaveformPlotter) Append(s []float64) {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	wp.buf = append(wp.buf, s...)
	if len(wp.buf) > wp.size {
		wp.buf = wp.buf[len(wp.buf)-wp.size:]
	}
}

func (wp *WaveformPlotter) GetImage() *ImageContainer {
	wp.mu.Lock()
	data := make([]float64, len(wp.buf))
	copy(data, wp.buf)
	wp.mu.Unlock()

	if len(data) < wp.size {
		return nil
	}

	p := plotWithDefaults()
	p.Title.Text = wp.name
	p.X.Label.Text = "t"
	p.Y.Label.Text = "Amplitude"
	p.Y.Min = -1.5
	p.Y.Max = 1.5

	for _, opt := range wp.plotOptions {
		opt(p)
	}

	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(data))
	for i, s := range data {
		pts[i] = plotter.XY{X: float64(i), Y: s}
	}
	if err := plotutil.AddLines(p, "f(t)", pts); err != nil {
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
	return &ImageContainer{name: wp.name, data: imageData.Bytes()}
}
