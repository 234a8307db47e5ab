package decode

import (
	"encoding/json"

	"bedrockchat/internal/capabilities"
	chatModels "bedrockchat/internal/domain/models/chat"
)

// Per-subtype chunk envelopes. Streamed chunks carry the same field paths as
// the complete responses, one increment at a time, plus terminal metadata.
type (
	claudeChunk struct {
		Type  string `json:"type"`
		Delta struct {
			Type       string  `json:"type"`
			Text       string  `json:"text"`
			StopReason *string `json:"stop_reason"`
		} `json:"delta"`
		Usage struct {
			OutputTokens *int `json:"output_tokens"`
		} `json:"usage"`
	}

	titanChunk struct {
		OutputText       *string `json:"outputText"`
		CompletionReason *string `json:"completionReason"`
	}

	legacyChatChunk struct {
		Completion *string `json:"completion"`
		StopReason *string `json:"stop_reason"`
	}

	llamaChunk struct {
		Generation *string `json:"generation"`
		StopReason *string `json:"stop_reason"`
		Outputs    []struct {
			Text       string  `json:"text"`
			StopReason *string `json:"stop_reason"`
		} `json:"outputs"`
	}

	mistralChunk struct {
		Outputs []struct {
			Text       string  `json:"text"`
			StopReason *string `json:"stop_reason"`
		} `json:"outputs"`
	}
)

// Chunk decodes one unit of a streamed response for the given subtype.
// Chunks that do not match the expected envelope come back as Unrecognized
// events; the stream reassembler logs and skips them.
func Chunk(payload []byte, subtype capabilities.Subtype) chatModels.StreamEvent {
	switch subtype {
	case capabilities.SubtypeClaude:
		var c claudeChunk
		if err := json.Unmarshal(payload, &c); err != nil {
			return unrecognized(payload)
		}
		switch c.Type {
		case "content_block_delta", "":
			// Some runtimes omit the envelope type and send the bare delta.
			if c.Delta.Type == "text_delta" {
				return chatModels.StreamEvent{TextDelta: c.Delta.Text}
			}
			if c.Type == "" {
				return unrecognized(payload)
			}
			return chatModels.StreamEvent{}
		case "message_delta":
			done := &chatModels.StreamDone{OutputTokens: c.Usage.OutputTokens}
			if c.Delta.StopReason != nil {
				done.StopReason = *c.Delta.StopReason
			}
			return chatModels.StreamEvent{Done: done}
		case "message_stop":
			return chatModels.StreamEvent{Done: &chatModels.StreamDone{}}
		case "message_start", "content_block_start", "content_block_stop", "ping":
			// Structural events with no text content.
			return chatModels.StreamEvent{}
		default:
			return unrecognized(payload)
		}

	case capabilities.SubtypeTitan:
		var c titanChunk
		if err := json.Unmarshal(payload, &c); err != nil || c.OutputText == nil {
			return unrecognized(payload)
		}
		ev := chatModels.StreamEvent{TextDelta: *c.OutputText}
		if c.CompletionReason != nil {
			ev.Done = &chatModels.StreamDone{StopReason: *c.CompletionReason}
		}
		return ev

	case capabilities.SubtypeLegacyChat:
		var c legacyChatChunk
		if err := json.Unmarshal(payload, &c); err != nil || c.Completion == nil {
			return unrecognized(payload)
		}
		ev := chatModels.StreamEvent{TextDelta: *c.Completion}
		if c.StopReason != nil && *c.StopReason != "" {
			ev.Done = &chatModels.StreamDone{StopReason: *c.StopReason}
		}
		return ev

	case capabilities.SubtypeLlama:
		var c llamaChunk
		if err := json.Unmarshal(payload, &c); err != nil {
			return unrecognized(payload)
		}
		if c.Generation != nil {
			ev := chatModels.StreamEvent{TextDelta: *c.Generation}
			if c.StopReason != nil && *c.StopReason != "" {
				ev.Done = &chatModels.StreamDone{StopReason: *c.StopReason}
			}
			return ev
		}
		if len(c.Outputs) > 0 {
			ev := chatModels.StreamEvent{TextDelta: c.Outputs[0].Text}
			if sr := c.Outputs[0].StopReason; sr != nil && *sr != "" {
				ev.Done = &chatModels.StreamDone{StopReason: *sr}
			}
			return ev
		}
		return unrecognized(payload)

	case capabilities.SubtypeMistral:
		var c mistralChunk
		if err := json.Unmarshal(payload, &c); err != nil || len(c.Outputs) == 0 {
			return unrecognized(payload)
		}
		ev := chatModels.StreamEvent{TextDelta: c.Outputs[0].Text}
		if sr := c.Outputs[0].StopReason; sr != nil && *sr != "" {
			ev.Done = &chatModels.StreamDone{StopReason: *sr}
		}
		return ev

	default:
		// Remaining subtypes (embeddings, image generation, unknown) have no
		// streaming form.
		return unrecognized(payload)
	}
}

func unrecognized(payload []byte) chatModels.StreamEvent {
	raw := make([]byte, len(payload))
	copy(raw, payload)
	return chatModels.StreamEvent{Unrecognized: raw}
}
