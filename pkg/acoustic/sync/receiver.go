package sync

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Wang-Ji20/acousticdi/pkg/acoustic/frame"
	"github.com/Wang-Ji20/acousticdi/pkg/acoustic/modem"
	"github.com/Wang-Ji20/acousticdi/pkg/acoustic/source"
)

const (
	// ProbeLength is the window, in samples, inspected per detection step.
	ProbeLength = 256

	// voteThreshold is the accumulated vote count that confirms one
	// preamble bit.
	voteThreshold = 20

	// mismatchBudget bounds opposite-bit detections tolerated while
	// collecting before the run is abandoned.
	mismatchBudget = 3

	// silenceBudget bounds consecutive empty probes tolerated while
	// collecting before the run is abandoned.
	silenceBudget = 30
)

// preambleSequence is the fixed bit pattern that must be confirmed, in
// order, before payload decoding starts.
var preambleSequence = [3]int{1, 0, 1}

// State identifies where the receiver is in the synchronization
// protocol.
type State int

const (
	StateScanning State = iota
	StateCollecting
	StateSynchronized
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateCollecting:
		return "collecting"
	case StateSynchronized:
		return "synchronized"
	default:
		return "unknown"
	}
}

// Receiver drives an advancing cursor over a sample source, locks onto
// the preamble bit sequence, and decodes length-prefixed frames. The
// cursor only ever moves forward within a session.
type Receiver struct {
	cfg    *modem.Config
	src    source.SampleSource
	det    *Detector
	dem    *modem.Demodulator
	logger zerolog.Logger

	cursor int
	state  State

	packets []frame.Packet
}

type ReceiverOption func(*Receiver)

func WithLogger(logger zerolog.Logger) ReceiverOption {
	return func(r *Receiver) {
		r.logger = logger
	}
}

func NewReceiver(cfg *modem.Config, src source.SampleSource, opts ...ReceiverOption) *Receiver {
	r := &Receiver{
		cfg:    cfg,
		src:    src,
		det:    NewDetector(cfg),
		dem:    modem.NewDemodulator(cfg),
		logger: zerolog.Nop(),
		state:  StateScanning,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State reports the receiver's current protocol state.
func (r *Receiver) State() State { return r.state }

// Cursor reports the absolute sample offset of the next read.
func (r *Receiver) Cursor() int { return r.cursor }

// Receive decodes frames until the source is exhausted or the context
// is cancelled, then reassembles the collected packets. A run that
// decoded at least one packet returns its data; a run that never
// synchronized surfaces the terminal error.
func (r *Receiver) Receive(ctx context.Context) ([]byte, error) {
	var terminal error
	for {
		if err := r.Synchronize(ctx); err != nil {
			terminal = err
			break
		}
		pkt, err := r.readFrame(ctx)
		if err != nil {
			if isEndOfStream(err) {
				terminal = err
				break
			}
			r.logger.Warn().Err(err).Int("cursor", r.cursor).Msg("frame decode failed, rescanning")
			r.state = StateScanning
			continue
		}
		r.logger.Info().Uint64("order", pkt.Order).Int("bytes", len(pkt.Data)).Msg("decoded frame")
		r.packets = append(r.packets, pkt)
		r.state = StateScanning
	}

	if len(r.packets) == 0 {
		return nil, terminal
	}
	return frame.Reassemble(r.packets), nil
}

// Synchronize confirms the full [1,0,1] preamble sequence. Failing any
// step restarts the whole sequence from scanning; the only errors are
// stream-level (cancellation or source exhaustion).
func (r *Receiver) Synchronize(ctx context.Context) error {
	r.state = StateScanning
	for {
		confirmed := true
		for i, bit := range preambleSequence {
			ok, err := r.acquireBit(ctx, bit, i > 0)
			if err != nil {
				return err
			}
			if !ok {
				r.logger.Debug().Int("step", i).Int("bit", bit).Msg("preamble step failed, restarting sequence")
				r.state = StateScanning
				confirmed = false
				break
			}
		}
		if !confirmed {
			continue
		}
		if err := r.consumeTrailingPreamble(ctx); err != nil {
			return err
		}
		r.state = StateSynchronized
		r.logger.Info().Int("cursor", r.cursor).Msg("preamble verified, synchronized")
		return nil
	}
}

func (r *Receiver) probe(ctx context.Context) ([]float64, error) {
	return r.src.ReadSamples(ctx, r.cursor, r.cursor+ProbeLength)
}

// acquireBit scans for the sought preamble bit and then collects votes
// until the confidence threshold is crossed. In strict mode (every step
// after the first) a confirmed-strength run of the opposite bit, or
// prolonged silence, fails the step so that a wrong mid-sequence tone
// restarts the whole confirmation.
func (r *Receiver) acquireBit(ctx context.Context, bit int, strict bool) (bool, error) {
	r.state = StateScanning

	// Scanning: advance until the sought bit shows up.
	wrongVotes := 0
	silent := 0
	var first Outcome
	for {
		samples, err := r.probe(ctx)
		if err != nil {
			return false, err
		}
		o := r.det.Detect(samples)
		if !o.Detected {
			r.cursor += ProbeLength
			silent++
			if strict && silent > silenceBudget {
				return false, nil
			}
			continue
		}
		if o.Bit != bit {
			r.cursor += o.EndingOffset
			silent = 0
			wrongVotes += o.Votes
			if strict && wrongVotes > voteThreshold {
				return false, nil
			}
			continue
		}
		r.cursor += o.EndingOffset
		first = o
		break
	}

	r.state = StateCollecting
	r.logger.Debug().Int("bit", bit).Int("cursor", r.cursor).Msg("probed preamble, collecting votes")

	votes := first.Votes
	mismatches := 0
	silent = 0
	for votes <= voteThreshold {
		samples, err := r.probe(ctx)
		if err != nil {
			return false, err
		}
		o := r.det.Detect(samples)
		switch {
		case !o.Detected:
			r.cursor += ProbeLength
			silent++
			if silent > silenceBudget {
				return false, nil
			}
		case o.Bit != bit:
			r.cursor += o.EndingOffset
			silent = 0
			mismatches++
			if mismatches > mismatchBudget {
				return false, nil
			}
		default:
			r.cursor += o.EndingOffset
			votes += o.Votes
			silent = 0
		}
	}

	r.logger.Debug().Int("bit", bit).Int("votes", votes).Msg("preamble bit confirmed")
	return true, nil
}

// consumeTrailingPreamble advances past leftover energy of the final
// preamble tone so payload decoding starts near the first data symbol.
// The cursor is left untouched by the first probe without that tone;
// residual misalignment is bounded by one probe and absorbed by the
// midpoint-column demodulation.
func (r *Receiver) consumeTrailingPreamble(ctx context.Context) error {
	lastBit := preambleSequence[len(preambleSequence)-1]
	for {
		samples, err := r.probe(ctx)
		if err != nil {
			return err
		}
		o := r.det.Detect(samples)
		if !o.Detected || o.Bit != lastBit {
			return nil
		}
		r.cursor += o.EndingOffset
	}
}

// readFrame decodes one length-prefixed frame starting at the cursor:
// the 16-byte header first, then exactly the declared payload length.
func (r *Receiver) readFrame(ctx context.Context) (frame.Packet, error) {
	header := make([]byte, 0, frame.HeaderLength)
	for i := 0; i < frame.HeaderLength; i++ {
		b, err := r.readByte(ctx)
		if err != nil {
			return frame.Packet{}, err
		}
		header = append(header, b)
	}

	// Check the declared length before reading the payload so a
	// desynchronized header cannot make us consume an absurd range.
	declared := int(binary.LittleEndian.Uint64(header[8:16]))
	if declared > frame.MaxPacketSize {
		return frame.Packet{}, fmt.Errorf("%w: declared length %d", frame.ErrMalformedFrame, declared)
	}

	buf := header
	for i := 0; i < declared; i++ {
		b, err := r.readByte(ctx)
		if err != nil {
			return frame.Packet{}, err
		}
		buf = append(buf, b)
	}
	return frame.Unmarshal(buf)
}

func (r *Receiver) readByte(ctx context.Context) (byte, error) {
	n := 2 * r.cfg.SymbolLength()
	samples, err := r.src.ReadSamples(ctx, r.cursor, r.cursor+n)
	if err != nil {
		return 0, err
	}
	r.cursor += n
	return r.dem.DemodulateByte(samples)
}

// isEndOfStream reports whether the error means no more samples will
// ever arrive: cancellation, a drained test source, or a closed capture
// buffer.
func isEndOfStream(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, source.ErrShortRead) ||
		errors.Is(err, source.ErrClosed)
}
