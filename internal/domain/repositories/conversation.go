package repositories

import (
	"context"

	chatModels "bedrockchat/internal/domain/models/chat"
)

// ConversationArchive persists conversation state between sessions and backs
// the conversation store's lazy population. The in-memory store is the source
// of truth while the process runs; the archive only sees completed mutations.
type ConversationArchive interface {
	// CreateConversation registers a new conversation.
	// Returns domain.ErrConflict if the id already exists.
	CreateConversation(ctx context.Context, id, title string) error

	// GetConversation loads a full conversation snapshot (messages, histories,
	// title). Returns domain.ErrNotFound if the id is unknown.
	GetConversation(ctx context.Context, id string) (*chatModels.Conversation, error)

	// ListConversations returns all conversations without their message logs,
	// newest first.
	ListConversations(ctx context.Context) ([]chatModels.Conversation, error)

	// AppendMessage persists one completed message at the end of the log.
	AppendMessage(ctx context.Context, conversationID string, msg *chatModels.Message) error

	// SaveFlatHistory replaces the persisted flat-prompt transcript.
	SaveFlatHistory(ctx context.Context, conversationID, history string) error

	// AppendTurn persists one structured history turn.
	AppendTurn(ctx context.Context, conversationID string, turn chatModels.ConversationTurn) error

	// SaveTitle replaces the persisted title.
	SaveTitle(ctx context.Context, conversationID, title string) error

	// DeleteConversation removes a conversation and everything under it.
	DeleteConversation(ctx context.Context, id string) error
}
