package chat

import (
	"bedrockchat/internal/capabilities"
	"bedrockchat/internal/config"
)

// Flat prompt construction for legacy-completion model families. The
// conversation transcript is a single growing string; each send truncates it
// to the trailing window, appends the new user turn in the family's format,
// and frames the result with the closing assistant marker the model expects
// to complete after.

// TruncateHistory bounds a flat transcript to its trailing
// config.MaxFlatHistoryChars characters. Shorter histories are returned
// unchanged.
func TruncateHistory(history string) string {
	if len(history) <= config.MaxFlatHistoryChars {
		return history
	}
	return history[len(history)-config.MaxFlatHistoryChars:]
}

// AppendUserTurn appends a user turn to a flat transcript in the style's
// format: llama3-style models take "user\n\n<input>", all others take
// "\nHuman: <input>".
func AppendUserTurn(history, input string, style capabilities.PromptStyle) string {
	if style == capabilities.PromptStyleLlama3 {
		return history + "user\n\n" + input
	}
	return history + "\nHuman: " + input
}

// AppendAssistantTurn appends a completed assistant reply to a flat
// transcript, mirroring AppendUserTurn's formatting.
func AppendAssistantTurn(history, reply string, style capabilities.PromptStyle) string {
	if style == capabilities.PromptStyleLlama3 {
		return history + "\n\nassistant\n\n" + reply
	}
	return history + "\nAssistant: " + reply
}

// FramePrompt turns a transcript ending in a user turn into the outbound
// prompt by appending the assistant marker the model continues from.
func FramePrompt(history string, style capabilities.PromptStyle) string {
	if style == capabilities.PromptStyleLlama3 {
		return history + "\n\nassistant\n\n"
	}
	return history + "\n\nAssistant:"
}
