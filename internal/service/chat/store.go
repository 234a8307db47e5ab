package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bedrockchat/internal/config"
	"bedrockchat/internal/domain"
	chatModels "bedrockchat/internal/domain/models/chat"
	"bedrockchat/internal/domain/repositories"
)

// Listener observes conversation store mutations. Callbacks run synchronously
// inside the mutating call, so every listener has observed a change before
// the mutation returns. Implementations must not call back into the store.
type Listener interface {
	OnMessageAppended(conversationID string, msg *chatModels.Message)
	OnMessageUpdated(conversationID string, msg *chatModels.Message, textDelta string)
	OnLoadingChanged(conversationID string, isLoading bool)
	OnTitleChanged(conversationID string, title string)
}

// conversationState is the live state of one conversation. All fields are
// guarded by mu; writes within a conversation are serialized while distinct
// conversations never block each other.
type conversationState struct {
	mu sync.Mutex

	id          string
	title       string
	messages    []*chatModels.Message
	flatHistory string
	turns       []chatModels.ConversationTurn
	isLoading   bool
}

// Store owns all per-conversation state: the ordered message log, the two
// parallel history representations, the loading flag and the title.
//
// Conversations are populated lazily: state may be filled asynchronously by
// the archive loader, so lookups go through Await, which polls with a
// bounded retry budget before reporting NotFound.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*conversationState

	archive repositories.ConversationArchive // optional; nil in tests
	logger  *slog.Logger

	listenersMu sync.RWMutex
	listeners   []Listener

	retryAttempts int
	retryInterval time.Duration
}

// NewStore creates a conversation store backed by the given archive. The
// archive may be nil, in which case only explicitly populated conversations
// exist.
func NewStore(archive repositories.ConversationArchive, logger *slog.Logger) *Store {
	return &Store{
		conversations: make(map[string]*conversationState),
		archive:       archive,
		logger:        logger,
		retryAttempts: config.StateRetryAttempts,
		retryInterval: config.StateRetryInterval,
	}
}

// Subscribe registers a listener for all conversations.
func (s *Store) Subscribe(l Listener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Populate inserts (or replaces) a conversation's state from a snapshot.
// Called by the archive loader and on conversation creation.
func (s *Store) Populate(conv *chatModels.Conversation) {
	state := &conversationState{
		id:          conv.ID,
		title:       conv.Title,
		flatHistory: conv.FlatHistory,
	}
	state.messages = make([]*chatModels.Message, len(conv.Messages))
	for i := range conv.Messages {
		state.messages[i] = conv.Messages[i].Clone()
	}
	state.turns = make([]chatModels.ConversationTurn, len(conv.Turns))
	copy(state.turns, conv.Turns)

	s.mu.Lock()
	s.conversations[conv.ID] = state
	s.mu.Unlock()
}

// Await blocks until the conversation's state exists, polling the archive
// between attempts. Returns domain.NotFoundError once the retry budget
// (config.StateRetryAttempts polls, config.StateRetryInterval apart) is
// exhausted, or ctx.Err() if cancelled while waiting.
func (s *Store) Await(ctx context.Context, id string) error {
	for attempt := 0; attempt < s.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.retryInterval):
			}
		}

		if s.get(id) != nil {
			return nil
		}

		if s.archive != nil {
			conv, err := s.archive.GetConversation(ctx, id)
			if err == nil {
				s.Populate(conv)
				return nil
			}
			if !errors.Is(err, domain.ErrNotFound) {
				s.logger.Warn("archive load failed", "conversation_id", id, "error", err)
			}
		}
	}

	return &domain.NotFoundError{Message: fmt.Sprintf("conversation %s never materialized", id)}
}

// Exists reports whether the conversation is currently materialized,
// without waiting.
func (s *Store) Exists(id string) bool {
	return s.get(id) != nil
}

// AppendMessage appends a message to the end of the conversation's log.
// The store takes its own copy; the caller's message is not retained.
func (s *Store) AppendMessage(id string, msg *chatModels.Message) error {
	state := s.get(id)
	if state == nil {
		return notFound(id)
	}

	owned := msg.Clone()

	state.mu.Lock()
	state.messages = append(state.messages, owned)
	state.mu.Unlock()

	s.notify(func(l Listener) { l.OnMessageAppended(id, owned.Clone()) })
	return nil
}

// AppendToMessage appends streaming text to an existing message. Used while
// an assistant reply streams in; the message's text grows monotonically.
func (s *Store) AppendToMessage(id, messageID, textDelta string) error {
	state := s.get(id)
	if state == nil {
		return notFound(id)
	}

	state.mu.Lock()
	var updated *chatModels.Message
	// Streaming always targets the latest message, so search from the tail.
	for i := len(state.messages) - 1; i >= 0; i-- {
		if state.messages[i].ID == messageID {
			state.messages[i].Text += textDelta
			updated = state.messages[i].Clone()
			break
		}
	}
	state.mu.Unlock()

	if updated == nil {
		return &domain.NotFoundError{Message: fmt.Sprintf("message %s not found in conversation %s", messageID, id)}
	}

	s.notify(func(l Listener) { l.OnMessageUpdated(id, updated, textDelta) })
	return nil
}

// Messages returns a copy of the ordered message log.
func (s *Store) Messages(id string) ([]chatModels.Message, error) {
	state := s.get(id)
	if state == nil {
		return nil, notFound(id)
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	out := make([]chatModels.Message, len(state.messages))
	for i, m := range state.messages {
		out[i] = *m.Clone()
	}
	return out, nil
}

// FlatHistory returns the legacy prompt-style transcript.
func (s *Store) FlatHistory(id string) (string, error) {
	state := s.get(id)
	if state == nil {
		return "", notFound(id)
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	return state.flatHistory, nil
}

// SetFlatHistory replaces the legacy prompt-style transcript.
func (s *Store) SetFlatHistory(id, history string) error {
	state := s.get(id)
	if state == nil {
		return notFound(id)
	}

	state.mu.Lock()
	state.flatHistory = history
	state.mu.Unlock()
	return nil
}

// Turns returns a copy of the structured turn history.
func (s *Store) Turns(id string) ([]chatModels.ConversationTurn, error) {
	state := s.get(id)
	if state == nil {
		return nil, notFound(id)
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	out := make([]chatModels.ConversationTurn, len(state.turns))
	copy(out, state.turns)
	return out, nil
}

// AppendTurn appends a structured history turn.
func (s *Store) AppendTurn(id string, turn chatModels.ConversationTurn) error {
	state := s.get(id)
	if state == nil {
		return notFound(id)
	}

	state.mu.Lock()
	state.turns = append(state.turns, turn)
	state.mu.Unlock()
	return nil
}

// IsLoading reports whether a send is in flight for the conversation.
func (s *Store) IsLoading(id string) bool {
	state := s.get(id)
	if state == nil {
		return false
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	return state.isLoading
}

// SetLoading flips the in-flight flag and notifies listeners.
func (s *Store) SetLoading(id string, isLoading bool) error {
	state := s.get(id)
	if state == nil {
		return notFound(id)
	}

	state.mu.Lock()
	changed := state.isLoading != isLoading
	state.isLoading = isLoading
	state.mu.Unlock()

	if changed {
		s.notify(func(l Listener) { l.OnLoadingChanged(id, isLoading) })
	}
	return nil
}

// Title returns the conversation title.
func (s *Store) Title(id string) (string, error) {
	state := s.get(id)
	if state == nil {
		return "", notFound(id)
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	return state.title, nil
}

// SetTitle replaces the conversation title and notifies listeners.
func (s *Store) SetTitle(id, title string) error {
	state := s.get(id)
	if state == nil {
		return notFound(id)
	}

	state.mu.Lock()
	state.title = title
	state.mu.Unlock()

	s.notify(func(l Listener) { l.OnTitleChanged(id, title) })
	return nil
}

// Snapshot returns a point-in-time copy of the full conversation state.
func (s *Store) Snapshot(id string) (*chatModels.Conversation, error) {
	state := s.get(id)
	if state == nil {
		return nil, notFound(id)
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	conv := &chatModels.Conversation{
		ID:          state.id,
		Title:       state.title,
		FlatHistory: state.flatHistory,
		IsLoading:   state.isLoading,
	}
	conv.Messages = make([]chatModels.Message, len(state.messages))
	for i, m := range state.messages {
		conv.Messages[i] = *m.Clone()
	}
	conv.Turns = make([]chatModels.ConversationTurn, len(state.turns))
	copy(conv.Turns, state.turns)
	return conv, nil
}

func (s *Store) get(id string) *conversationState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conversations[id]
}

func (s *Store) notify(fn func(Listener)) {
	s.listenersMu.RLock()
	defer s.listenersMu.RUnlock()
	for _, l := range s.listeners {
		fn(l)
	}
}

func notFound(id string) error {
	return &domain.NotFoundError{Message: fmt.Sprintf("conversation %s not found", id)}
}
