package chat

import (
	"time"
)

// Author identifies who produced a message.
type Author string

const (
	AuthorUser      Author = "user"
	AuthorAssistant Author = "assistant"
	AuthorSystem    Author = "system"
)

// Message is a single entry in a conversation's visible log.
//
// Text grows by append while an assistant reply is streaming and is frozen
// once the owning request completes. AttachedImages carries base64-encoded
// image payloads attached by the user (empty for assistant messages).
type Message struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	Author         Author    `json:"author"`
	IsError        bool      `json:"is_error,omitempty"`
	SentAt         time.Time `json:"sent_at"`
	AttachedImages []Image   `json:"attached_images,omitempty"`
}

// Image is a base64-encoded image payload with its media type.
type Image struct {
	MediaType  string `json:"media_type"`
	Base64Data string `json:"base64_data"`
}

// Clone returns a deep copy of the message. The store hands out clones so
// callers never hold references into the live log.
func (m *Message) Clone() *Message {
	c := *m
	if len(m.AttachedImages) > 0 {
		c.AttachedImages = make([]Image, len(m.AttachedImages))
		copy(c.AttachedImages, m.AttachedImages)
	}
	return &c
}
