// Package wavfile replays a recorded WAV capture into the sample
// buffer, for decoding transmissions offline.
package wavfile

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Wang-Ji20/acousticdi/pkg/acoustic/source"
	"github.com/Wang-Ji20/acousticdi/pkg/audio/wavio"
)

type WavDevice struct {
	samples     []float64
	blockSize   int
	timeBetween time.Duration
	logger      zerolog.Logger
}

// New loads the file eagerly so a bad path or container fails at
// startup, not mid-session.
func New(path string, expectedRate int, blockSize int, timeBetween time.Duration, logger zerolog.Logger) (*WavDevice, error) {
	samples, rate, err := wavio.Read(path)
	if err != nil {
		return nil, err
	}
	if rate != expectedRate {
		return nil, fmt.Errorf("wavfile: %s has sample rate %d, need %d", path, rate, expectedRate)
	}
	return &WavDevice{
		samples:     samples,
		blockSize:   blockSize,
		timeBetween: timeBetween,
		logger:      logger,
	}, nil
}

// Start feeds the recording into buf one block at a time, pacing blocks
// the way a live device would, then closes the buffer.
func (d *WavDevice) Start(ctx context.Context, buf *source.CaptureBuffer) error {
	d.logger.Info().Int("samples", len(d.samples)).Msg("replaying recording")
	tick := time.NewTicker(d.timeBetween)
	defer tick.Stop()

	for off := 0; off < len(d.samples); off += d.blockSize {
		select {
		case <-ctx.Done():
			buf.Close()
			return ctx.Err()
		case <-tick.C:
			end := off + d.blockSize
			if end > len(d.samples) {
				end = len(d.samples)
			}
			buf.Append(d.samples[off:end])
		}
	}
	buf.Close()
	return nil
}

func (d *WavDevice) Stop() error { return nil }
