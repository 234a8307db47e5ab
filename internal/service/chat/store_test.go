package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bedrockchat/internal/domain"
	chatModels "bedrockchat/internal/domain/models/chat"
)

// recordingListener captures every notification for assertions.
type recordingListener struct {
	mu        sync.Mutex
	appended  []chatModels.Message
	deltas    []string
	loading   []bool
	titles    []string
}

func (r *recordingListener) OnMessageAppended(_ string, msg *chatModels.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appended = append(r.appended, *msg)
}

func (r *recordingListener) OnMessageUpdated(_ string, _ *chatModels.Message, textDelta string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deltas = append(r.deltas, textDelta)
}

func (r *recordingListener) OnLoadingChanged(_ string, isLoading bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loading = append(r.loading, isLoading)
}

func (r *recordingListener) OnTitleChanged(_ string, title string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titles = append(r.titles, title)
}

func newTestStore() *Store {
	s := NewStore(nil, discardLogger())
	s.retryAttempts = 3
	s.retryInterval = 5 * time.Millisecond
	return s
}

func populated(s *Store, id string) {
	s.Populate(&chatModels.Conversation{ID: id, Title: "test"})
}

func TestStoreAppendMessage(t *testing.T) {
	s := newTestStore()
	populated(s, "c1")

	listener := &recordingListener{}
	s.Subscribe(listener)

	msg := &chatModels.Message{ID: "m1", Text: "hello", Author: chatModels.AuthorUser}
	require.NoError(t, s.AppendMessage("c1", msg))

	// The store owns its copy; mutating the original must not leak in.
	msg.Text = "mutated"

	msgs, err := s.Messages("c1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Text)

	require.Len(t, listener.appended, 1)
	assert.Equal(t, "m1", listener.appended[0].ID)
}

func TestStoreAppendMessageUnknownConversation(t *testing.T) {
	s := newTestStore()
	err := s.AppendMessage("missing", &chatModels.Message{ID: "m1"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStoreAppendToMessage(t *testing.T) {
	s := newTestStore()
	populated(s, "c1")

	listener := &recordingListener{}
	s.Subscribe(listener)

	require.NoError(t, s.AppendMessage("c1", &chatModels.Message{ID: "m1", Text: "He", Author: chatModels.AuthorAssistant}))
	require.NoError(t, s.AppendToMessage("c1", "m1", "llo"))
	require.NoError(t, s.AppendToMessage("c1", "m1", " world"))

	msgs, err := s.Messages("c1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Hello world", msgs[0].Text)
	assert.Equal(t, []string{"llo", " world"}, listener.deltas)

	err = s.AppendToMessage("c1", "nope", "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStoreLoadingNotifiesOnChangeOnly(t *testing.T) {
	s := newTestStore()
	populated(s, "c1")

	listener := &recordingListener{}
	s.Subscribe(listener)

	require.NoError(t, s.SetLoading("c1", true))
	require.NoError(t, s.SetLoading("c1", true))
	require.NoError(t, s.SetLoading("c1", false))

	assert.Equal(t, []bool{true, false}, listener.loading)
	assert.False(t, s.IsLoading("c1"))
}

func TestStoreAwaitEventualPopulate(t *testing.T) {
	s := newTestStore()

	go func() {
		time.Sleep(8 * time.Millisecond)
		populated(s, "late")
	}()

	err := s.Await(context.Background(), "late")
	assert.NoError(t, err)
}

func TestStoreAwaitExhaustsBudget(t *testing.T) {
	s := newTestStore()

	start := time.Now()
	err := s.Await(context.Background(), "never")
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	// Two sleeps between three attempts.
	assert.GreaterOrEqual(t, elapsed, 2*s.retryInterval)
}

func TestStoreAwaitCancellation(t *testing.T) {
	s := newTestStore()
	s.retryAttempts = 100

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := s.Await(ctx, "never")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestStoreSnapshot(t *testing.T) {
	s := newTestStore()
	s.Populate(&chatModels.Conversation{
		ID:          "c1",
		Title:       "snapshot me",
		FlatHistory: "\nHuman: hi\nAssistant: hello",
		Turns:       []chatModels.ConversationTurn{chatModels.UserTurn("hi", nil)},
		Messages:    []chatModels.Message{{ID: "m1", Text: "hi", Author: chatModels.AuthorUser}},
	})

	snap, err := s.Snapshot("c1")
	require.NoError(t, err)
	assert.Equal(t, "snapshot me", snap.Title)
	assert.Equal(t, "\nHuman: hi\nAssistant: hello", snap.FlatHistory)
	require.Len(t, snap.Messages, 1)
	require.Len(t, snap.Turns, 1)

	// Snapshot is a copy, not a view.
	snap.Messages[0].Text = "mutated"
	msgs, err := s.Messages("c1")
	require.NoError(t, err)
	assert.Equal(t, "hi", msgs[0].Text)
}

func TestStoreTitle(t *testing.T) {
	s := newTestStore()
	populated(s, "c1")

	listener := &recordingListener{}
	s.Subscribe(listener)

	require.NoError(t, s.SetTitle("c1", "Greeting exchange"))
	title, err := s.Title("c1")
	require.NoError(t, err)
	assert.Equal(t, "Greeting exchange", title)
	assert.Equal(t, []string{"Greeting exchange"}, listener.titles)
}
