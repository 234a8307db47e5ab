package chat

import (
	chatModels "bedrockchat/internal/domain/models/chat"
)

// SendRequest is the DTO for sending a user message to a conversation.
type SendRequest struct {
	ConversationID string `json:"conversation_id"`

	// ModelID selects the target model; the capability registry derives the
	// family, subtype and default streaming preference from it.
	ModelID string `json:"model_id"`

	// Input is the raw user text. Empty input is rejected without producing
	// a message.
	Input string `json:"input"`

	// Images are pending attachments, already base64 encoded. Consumed by
	// the send: the orchestrator clears the buffer once the user message is
	// constructed.
	Images []chatModels.Image `json:"images,omitempty"`
}
