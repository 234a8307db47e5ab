package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bedrockchat/internal/capabilities"
)

func TestTitleUpdaterSetsTitle(t *testing.T) {
	registry, err := capabilities.NewRegistry()
	require.NoError(t, err)

	invoker := &fakeInvoker{
		completePayload: []byte(`{"content":[{"type":"text","text":"  \"Friendly greeting exchange\"  "}]}`),
	}
	store := newTestStore()
	populated(store, "c1")

	u := NewTitleUpdater(invoker, registry, store, nil,
		"anthropic.claude-3-haiku-20240307-v1:0", discardLogger())
	u.Update("c1", "hello there, how are you today?")

	title, err := store.Title("c1")
	require.NoError(t, err)
	assert.Equal(t, "Friendly greeting exchange", title)

	// The summarization prompt wraps the raw user input.
	invoker.mu.Lock()
	defer invoker.mu.Unlock()
	require.Len(t, invoker.lastTurns, 1)
	assert.Contains(t, invoker.lastTurns[0].Content[0].Text, "hello there, how are you today?")
}

func TestTitleUpdaterSwallowsFailures(t *testing.T) {
	registry, err := capabilities.NewRegistry()
	require.NoError(t, err)

	invoker := &fakeInvoker{completeErr: assert.AnError}
	store := newTestStore()
	populated(store, "c1")
	require.NoError(t, store.SetTitle("c1", "unchanged"))

	u := NewTitleUpdater(invoker, registry, store, nil,
		"anthropic.claude-3-haiku-20240307-v1:0", discardLogger())
	u.Update("c1", "hello")

	title, err := store.Title("c1")
	require.NoError(t, err)
	assert.Equal(t, "unchanged", title)
}