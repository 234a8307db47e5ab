package chat

import (
	"context"
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"bedrockchat/internal/config"
	"bedrockchat/internal/domain"
	chatModels "bedrockchat/internal/domain/models/chat"
	"bedrockchat/internal/domain/repositories"
)

// ConversationService handles conversation lifecycle operations: create,
// list, read, and delete. The in-memory store is the source of truth for
// live conversations; the archive keeps them across restarts.
type ConversationService struct {
	store    *Store
	archive  repositories.ConversationArchive // may be nil
	settings repositories.Settings            // may be nil
}

func NewConversationService(store *Store, archive repositories.ConversationArchive, settings repositories.Settings) *ConversationService {
	return &ConversationService{store: store, archive: archive, settings: settings}
}

// Create starts a new empty conversation and registers it with the store so
// sends against it resolve immediately.
func (s *ConversationService) Create(ctx context.Context, title string) (*chatModels.Conversation, error) {
	if err := validation.Validate(title, validation.Length(0, config.MaxConversationTitleLength)); err != nil {
		return nil, &domain.ValidationError{Message: "title: " + err.Error()}
	}
	if title == "" {
		title = "New conversation"
	}

	conv := &chatModels.Conversation{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: time.Now(),
	}

	if s.archive != nil {
		if err := s.archive.CreateConversation(ctx, conv.ID, conv.Title); err != nil {
			return nil, err
		}
	}
	s.store.Populate(conv)
	return conv, nil
}

// Get returns a snapshot of the conversation, loading it from the archive
// if it is not yet in memory.
func (s *ConversationService) Get(ctx context.Context, id string) (*chatModels.Conversation, error) {
	snap, err := s.store.Snapshot(id)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, domain.ErrNotFound) || s.archive == nil {
		return nil, err
	}

	conv, err := s.archive.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store.Populate(conv)
	return s.store.Snapshot(id)
}

// List returns all archived conversations, newest first.
func (s *ConversationService) List(ctx context.Context) ([]chatModels.Conversation, error) {
	if s.archive == nil {
		return nil, nil
	}
	return s.archive.ListConversations(ctx)
}

// Delete removes the conversation from the archive along with any settings
// override attached to it. The in-memory state is left to expire with the
// process; there is no eviction path for a live send.
func (s *ConversationService) Delete(ctx context.Context, id string) error {
	if s.settings != nil {
		if err := s.settings.ClearStreamingOverride(ctx, id); err != nil {
			return err
		}
	}
	if s.archive == nil {
		return nil
	}
	return s.archive.DeleteConversation(ctx, id)
}

// SetStreaming records a per-conversation streaming override.
func (s *ConversationService) SetStreaming(ctx context.Context, id string, streaming bool) error {
	if s.settings == nil {
		return &domain.ValidationError{Message: "settings storage is not configured"}
	}
	return s.settings.SetStreamingOverride(ctx, id, streaming)
}
