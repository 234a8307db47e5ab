package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"bedrockchat/internal/capabilities"
	"bedrockchat/internal/config"
)

func TestTruncateHistory(t *testing.T) {
	short := "Human: hi\nAssistant: hello"
	assert.Equal(t, short, TruncateHistory(short))

	long := strings.Repeat("x", config.MaxFlatHistoryChars+500)
	got := TruncateHistory(long)
	assert.Len(t, got, config.MaxFlatHistoryChars)
	assert.Equal(t, long[500:], got)
}

func TestAppendUserTurn(t *testing.T) {
	tests := []struct {
		name    string
		history string
		input   string
		style   capabilities.PromptStyle
		want    string
	}{
		{
			name:  "human style empty history",
			input: "hello",
			style: capabilities.PromptStyleHuman,
			want:  "\nHuman: hello",
		},
		{
			name:    "human style existing history",
			history: "\nHuman: hi\nAssistant: hey",
			input:   "more",
			style:   capabilities.PromptStyleHuman,
			want:    "\nHuman: hi\nAssistant: hey\nHuman: more",
		},
		{
			name:  "llama3 style",
			input: "hello",
			style: capabilities.PromptStyleLlama3,
			want:  "user\n\nhello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AppendUserTurn(tt.history, tt.input, tt.style))
		})
	}
}

func TestFramePrompt(t *testing.T) {
	assert.Equal(t, "\nHuman: hi\n\nAssistant:",
		FramePrompt("\nHuman: hi", capabilities.PromptStyleHuman))
	assert.Equal(t, "user\n\nhi\n\nassistant\n\n",
		FramePrompt("user\n\nhi", capabilities.PromptStyleLlama3))
}

func TestAppendAssistantTurn(t *testing.T) {
	assert.Equal(t, "\nHuman: hi\nAssistant: hello",
		AppendAssistantTurn("\nHuman: hi", "hello", capabilities.PromptStyleHuman))
	assert.Equal(t, "user\n\nhi\n\nassistant\n\nhello",
		AppendAssistantTurn("user\n\nhi", "hello", capabilities.PromptStyleLlama3))
}
