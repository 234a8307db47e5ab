package chat

import (
	"time"
)

// Conversation is a point-in-time snapshot of one conversation's state.
//
// Messages is the ordered visible log. FlatHistory and Turns are the two
// parallel history representations; which one is authoritative depends on
// the model family the conversation is used with. IsLoading is true while
// a send is in flight.
type Conversation struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Messages    []Message          `json:"messages"`
	FlatHistory string             `json:"flat_history,omitempty"`
	Turns       []ConversationTurn `json:"turns,omitempty"`
	IsLoading   bool               `json:"is_loading"`
	CreatedAt   time.Time          `json:"created_at,omitempty"`
}
