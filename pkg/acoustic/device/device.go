// Package device abstracts the audio sample producers that feed the
// receiver's capture buffer.
package device

import (
	"context"

	"github.com/Wang-Ji20/acousticdi/pkg/acoustic/source"
)

// Device produces samples into the shared capture buffer until the
// context is cancelled or the underlying stream ends. Implementations
// close the buffer when no more samples will arrive.
type Device interface {
	Start(ctx context.Context, buf *source.CaptureBuffer) error
	Stop() error
}
