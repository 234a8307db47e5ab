package chat

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bedrockchat/internal/capabilities"
	chatModels "bedrockchat/internal/domain/models/chat"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func feedChunks(payloads ...string) <-chan []byte {
	ch := make(chan []byte, len(payloads))
	for _, p := range payloads {
		ch <- []byte(p)
	}
	close(ch)
	return ch
}

func TestReassemblerCoalescesDeltas(t *testing.T) {
	chunks := feedChunks(
		`{"type":"message_start"}`,
		`{"type":"content_block_delta","delta":{"type":"text_delta","text":"He"}}`,
		`{"type":"content_block_delta","delta":{"type":"text_delta","text":"llo"}}`,
		`{"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":3}}`,
		`{"type":"message_stop"}`,
	)

	var deltas []string
	var done *chatModels.StreamDone
	r := NewReassembler(capabilities.SubtypeClaude, discardLogger())
	final, err := r.Run(context.Background(), chunks, func(ev chatModels.StreamEvent) error {
		if ev.IsText() {
			deltas = append(deltas, ev.TextDelta)
		}
		if ev.IsDone() && done == nil {
			done = ev.Done
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello", final)
	assert.Equal(t, []string{"He", "llo"}, deltas)
	require.NotNil(t, done)
	assert.Equal(t, "end_turn", done.StopReason)
}

func TestReassemblerCoalescesBareDeltas(t *testing.T) {
	chunks := feedChunks(
		`{"delta":{"type":"text_delta","text":"He"}}`,
		`{"delta":{"type":"text_delta","text":"llo"}}`,
	)

	var deltas []string
	r := NewReassembler(capabilities.SubtypeClaude, discardLogger())
	final, err := r.Run(context.Background(), chunks, func(ev chatModels.StreamEvent) error {
		if ev.IsText() {
			deltas = append(deltas, ev.TextDelta)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello", final)
	assert.Equal(t, []string{"He", "llo"}, deltas)
}

func TestReassemblerSkipsBadChunks(t *testing.T) {
	chunks := feedChunks(
		`{"type":"content_block_delta","delta":{"type":"text_delta","text":"good"}}`,
		`not json at all`,
		`{"type":"some_future_event"}`,
		`{"type":"content_block_delta","delta":{"type":"text_delta","text":" text"}}`,
	)

	r := NewReassembler(capabilities.SubtypeClaude, discardLogger())
	final, err := r.Run(context.Background(), chunks, func(chatModels.StreamEvent) error { return nil })

	require.NoError(t, err)
	assert.Equal(t, "good text", final)
}

func TestReassemblerTrimsFinalText(t *testing.T) {
	chunks := feedChunks(
		`{"outputText":"  Hello"}`,
		`{"outputText":" world  ","completionReason":"FINISH"}`,
	)

	r := NewReassembler(capabilities.SubtypeTitan, discardLogger())
	final, err := r.Run(context.Background(), chunks, func(chatModels.StreamEvent) error { return nil })

	require.NoError(t, err)
	assert.Equal(t, "Hello world", final)
}

func TestReassemblerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	ch := make(chan []byte, 1)
	ch <- []byte(`{"type":"content_block_delta","delta":{"type":"text_delta","text":"partial"}}`)

	r := NewReassembler(capabilities.SubtypeClaude, discardLogger())
	applied := 0
	final, err := r.Run(ctx, ch, func(ev chatModels.StreamEvent) error {
		applied++
		// Cancel while the stream is still open; the next select observes it.
		cancel()
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "partial", final)
	assert.Equal(t, 1, applied)
}

func TestReassemblerApplyErrorAborts(t *testing.T) {
	chunks := feedChunks(
		`{"type":"content_block_delta","delta":{"type":"text_delta","text":"one"}}`,
		`{"type":"content_block_delta","delta":{"type":"text_delta","text":"two"}}`,
	)

	boom := assert.AnError
	r := NewReassembler(capabilities.SubtypeClaude, discardLogger())
	_, err := r.Run(context.Background(), chunks, func(chatModels.StreamEvent) error { return boom })

	assert.ErrorIs(t, err, boom)
}
