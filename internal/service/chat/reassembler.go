package chat

import (
	"context"
	"log/slog"
	"strings"

	"bedrockchat/internal/capabilities"
	chatModels "bedrockchat/internal/domain/models/chat"
	"bedrockchat/internal/service/chat/decode"
)

// Reassembler folds an ordered sequence of raw chunk payloads into coalesced
// StreamEvents and a final complete text. It is a strict left-to-right fold:
// chunks are consumed in arrival order with no lookahead, no reordering and
// no parallel decode.
//
// Chunks that fail to decode as the expected envelope are logged and skipped;
// the stream continues. A skipped chunk is never fatal.
type Reassembler struct {
	subtype capabilities.Subtype
	logger  *slog.Logger
}

// NewReassembler creates a reassembler for one model subtype.
func NewReassembler(subtype capabilities.Subtype, logger *slog.Logger) *Reassembler {
	return &Reassembler{
		subtype: subtype,
		logger:  logger,
	}
}

// Run consumes chunk payloads until the channel closes or ctx is cancelled.
// Every non-empty text delta and every terminal event is passed to apply in
// arrival order; empty and unrecognized events never reach apply. Returns
// the trimmed concatenation of all text deltas emitted.
//
// A non-nil error from apply aborts the fold immediately. On cancellation
// the text accumulated so far is still returned alongside ctx.Err().
func (r *Reassembler) Run(ctx context.Context, chunks <-chan []byte, apply func(ev chatModels.StreamEvent) error) (string, error) {
	var final strings.Builder

	for {
		select {
		case <-ctx.Done():
			return strings.TrimSpace(final.String()), ctx.Err()

		case payload, ok := <-chunks:
			if !ok {
				return strings.TrimSpace(final.String()), nil
			}

			ev := decode.Chunk(payload, r.subtype)

			if ev.Unrecognized != nil {
				r.logger.Warn("skipping unrecognized stream chunk",
					"subtype", r.subtype,
					"chunk_bytes", len(ev.Unrecognized),
				)
				continue
			}

			if ev.IsText() {
				final.WriteString(ev.TextDelta)
				if err := apply(ev); err != nil {
					return strings.TrimSpace(final.String()), err
				}
				continue
			}

			if ev.IsDone() {
				if err := apply(ev); err != nil {
					return strings.TrimSpace(final.String()), err
				}
			}
		}
	}
}
