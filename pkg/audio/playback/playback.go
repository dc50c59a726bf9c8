// Package playback plays a waveform on the default output device.
package playback

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Play blocks until the whole waveform has been played or ctx is
// cancelled. Output-device initialization failures are returned as-is;
// they are fatal for a transmit session.
func Play(ctx context.Context, samples []float64, sampleRate int) error {
	opts := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	}
	octx, ready, err := oto.NewContext(opts)
	if err != nil {
		return fmt.Errorf("playback: init output context: %w", err)
	}
	select {
	case <-ready:
	case <-ctx.Done():
		return ctx.Err()
	}

	pcm := make([]byte, 0, 4*len(samples))
	var b [4]byte
	for _, s := range samples {
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(float32(s)))
		pcm = append(pcm, b[:]...)
	}

	player := octx.NewPlayer(bytes.NewReader(pcm))
	defer player.Close()
	player.Play()

	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
	return nil
}
