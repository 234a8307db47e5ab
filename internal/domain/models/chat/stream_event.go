package chat

// StreamEvent is one decoded unit of a streamed model response.
//
// Exactly one of the fields is meaningful per event:
//   - TextDelta: incremental text content
//   - Done: terminal event carrying stop metadata
//   - Unrecognized: raw payload that did not match the expected envelope
//
// Consumers check which field is set, in that order.
type StreamEvent struct {
	TextDelta    string      `json:"text_delta,omitempty"`
	Done         *StreamDone `json:"done,omitempty"`
	Unrecognized []byte      `json:"-"`
}

// StreamDone carries the terminal metadata of a streamed response.
// Either field may be absent depending on the model family.
type StreamDone struct {
	StopReason   string `json:"stop_reason,omitempty"`
	OutputTokens *int   `json:"output_tokens,omitempty"`
}

// IsText reports whether the event carries a non-empty text delta.
func (e StreamEvent) IsText() bool {
	return e.TextDelta != ""
}

// IsDone reports whether the event terminates the stream.
func (e StreamEvent) IsDone() bool {
	return e.Done != nil
}
