// Package capture feeds the receiver from the default microphone via
// the miniaudio bindings. Device and format failures are fatal startup
// errors; the capture callback itself only appends to the shared
// buffer.
package capture

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gen2brain/malgo"
	"github.com/rs/zerolog"

	"github.com/Wang-Ji20/acousticdi/pkg/acoustic/source"
)

const sampleBytes = 4 // 32-bit float capture format

type CaptureDevice struct {
	sampleRate int
	logger     zerolog.Logger

	mctx *malgo.AllocatedContext
	dev  *malgo.Device
}

func New(sampleRate int, logger zerolog.Logger) *CaptureDevice {
	return &CaptureDevice{
		sampleRate: sampleRate,
		logger:     logger,
	}
}

// Start opens the default capture device and appends every received
// block to buf until ctx is cancelled. It blocks for the duration of
// the capture session.
func (d *CaptureDevice) Start(ctx context.Context, buf *source.CaptureBuffer) error {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		d.logger.Debug().Str("device", "capture").Msg(message)
	})
	if err != nil {
		return fmt.Errorf("capture: init audio context: %w", err)
	}
	d.mctx = mctx
	defer func() {
		_ = mctx.Uninit()
		mctx.Free()
	}()

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatF32
	cfg.Capture.Channels = 1
	cfg.SampleRate = uint32(d.sampleRate)
	cfg.Alsa.NoMMap = 1

	onRecv := func(_, pSample []byte, frameCount uint32) {
		if len(pSample)%sampleBytes != 0 {
			return
		}
		block := make([]float32, 0, len(pSample)/sampleBytes)
		for i := 0; i+sampleBytes <= len(pSample); i += sampleBytes {
			bits := binary.LittleEndian.Uint32(pSample[i : i+sampleBytes])
			block = append(block, math.Float32frombits(bits))
		}
		buf.AppendFloat32(block)
	}

	dev, err := malgo.InitDevice(mctx.Context, cfg, malgo.DeviceCallbacks{Data: onRecv})
	if err != nil {
		return fmt.Errorf("capture: init capture device: %w", err)
	}
	d.dev = dev
	defer dev.Uninit()

	if err := dev.Start(); err != nil {
		return fmt.Errorf("capture: start capture device: %w", err)
	}
	d.logger.Info().Int("sample_rate", d.sampleRate).Msg("recording started")

	<-ctx.Done()
	buf.Close()
	return ctx.Err()
}

func (d *CaptureDevice) Stop() error {
	if d.dev != nil {
		d.dev.Uninit()
		d.dev = nil
	}
	return nil
}
