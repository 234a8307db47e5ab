package chat

import (
	"encoding/json"
	"fmt"
)

// SSE event type constants for conversation change notifications
const (
	SSEEventMessageAppended = "message_appended" // New message added to the log
	SSEEventMessageUpdated  = "message_updated"  // Streaming text appended to a message
	SSEEventLoadingChanged  = "loading_changed"  // isLoading flag flipped
	SSEEventTitleChanged    = "title_changed"    // Conversation title replaced
)

// MessageAppendedEvent carries a newly appended message.
type MessageAppendedEvent struct {
	ConversationID string   `json:"conversation_id"`
	Message        *Message `json:"message"`
}

// MessageUpdatedEvent carries a streaming text delta for an existing message.
// Text is the delta, not the accumulated message text; consumers append.
type MessageUpdatedEvent struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	Text           string `json:"text"`
}

// LoadingChangedEvent signals the in-flight flag changing.
type LoadingChangedEvent struct {
	ConversationID string `json:"conversation_id"`
	IsLoading      bool   `json:"is_loading"`
}

// TitleChangedEvent signals a title replacement.
type TitleChangedEvent struct {
	ConversationID string `json:"conversation_id"`
	Title          string `json:"title"`
}

// FormatSSE formats an event for SSE transmission:
//
//	event: event_name
//	data: {"field": "value"}
func FormatSSE(eventType string, data interface{}) (string, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal SSE event data: %w", err)
	}

	return fmt.Sprintf("event: %s\ndata: %s\n\n", eventType, string(jsonData)), nil
}

// NewMessageAppendedEvent creates a message_appended SSE event.
func NewMessageAppendedEvent(conversationID string, msg *Message) (string, error) {
	return FormatSSE(SSEEventMessageAppended, MessageAppendedEvent{
		ConversationID: conversationID,
		Message:        msg,
	})
}

// NewMessageUpdatedEvent creates a message_updated SSE event.
func NewMessageUpdatedEvent(conversationID, messageID, textDelta string) (string, error) {
	return FormatSSE(SSEEventMessageUpdated, MessageUpdatedEvent{
		ConversationID: conversationID,
		MessageID:      messageID,
		Text:           textDelta,
	})
}

// NewLoadingChangedEvent creates a loading_changed SSE event.
func NewLoadingChangedEvent(conversationID string, isLoading bool) (string, error) {
	return FormatSSE(SSEEventLoadingChanged, LoadingChangedEvent{
		ConversationID: conversationID,
		IsLoading:      isLoading,
	})
}

// NewTitleChangedEvent creates a title_changed SSE event.
func NewTitleChangedEvent(conversationID, title string) (string, error) {
	return FormatSSE(SSEEventTitleChanged, TitleChangedEvent{
		ConversationID: conversationID,
		Title:          title,
	})
}
