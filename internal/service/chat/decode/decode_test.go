package decode

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"

	"bedrockchat/internal/capabilities"
	"bedrockchat/internal/domain"
)

func TestCompleteText(t *testing.T) {
	tests := []struct {
		name     string
		subtype  capabilities.Subtype
		payload  string
		wantText string
		wantErr  bool
	}{
		{
			name:     "legacy chat completion field",
			subtype:  capabilities.SubtypeLegacyChat,
			payload:  `{"completion":"hello"}`,
			wantText: "hello",
		},
		{
			name:     "legacy chat empty completion is valid",
			subtype:  capabilities.SubtypeLegacyChat,
			payload:  `{"completion":""}`,
			wantText: "",
		},
		{
			name:    "legacy chat missing completion",
			subtype: capabilities.SubtypeLegacyChat,
			payload: `{"unexpected":true}`,
			wantErr: true,
		},
		{
			name:     "titan results output text",
			subtype:  capabilities.SubtypeTitan,
			payload:  `{"results":[{"outputText":"titan says hi"}]}`,
			wantText: "titan says hi",
		},
		{
			name:    "titan empty results",
			subtype: capabilities.SubtypeTitan,
			payload: `{"results":[]}`,
			wantErr: true,
		},
		{
			name:     "llama generation field",
			subtype:  capabilities.SubtypeLlama,
			payload:  `{"generation":"llama text"}`,
			wantText: "llama text",
		},
		{
			name:     "llama outputs fallback",
			subtype:  capabilities.SubtypeLlama,
			payload:  `{"outputs":[{"text":"fallback text"}]}`,
			wantText: "fallback text",
		},
		{
			name:    "llama neither field",
			subtype: capabilities.SubtypeLlama,
			payload: `{}`,
			wantErr: true,
		},
		{
			name:     "mistral outputs",
			subtype:  capabilities.SubtypeMistral,
			payload:  `{"outputs":[{"text":"mistral text"}]}`,
			wantText: "mistral text",
		},
		{
			name:     "ai21 completions data text",
			subtype:  capabilities.SubtypeAI21,
			payload:  `{"completions":[{"data":{"text":"jurassic text"}}]}`,
			wantText: "jurassic text",
		},
		{
			name:     "cohere generations",
			subtype:  capabilities.SubtypeCohereCommand,
			payload:  `{"generations":[{"text":"cohere text"}]}`,
			wantText: "cohere text",
		},
		{
			name:     "claude content blocks concatenated",
			subtype:  capabilities.SubtypeClaude,
			payload:  `{"content":[{"type":"text","text":"part one "},{"type":"text","text":"part two"}]}`,
			wantText: "part one part two",
		},
		{
			name:     "jamba choices message content",
			subtype:  capabilities.SubtypeJambaInstruct,
			payload:  `{"choices":[{"message":{"content":"jamba text"}}]}`,
			wantText: "jamba text",
		},
		{
			name:    "unknown subtype",
			subtype: capabilities.SubtypeUnknown,
			payload: `{"completion":"hello"}`,
			wantErr: true,
		},
		{
			name:    "malformed json",
			subtype: capabilities.SubtypeTitan,
			payload: `{"results":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Complete([]byte(tt.payload), tt.subtype)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("Complete() expected error, got %+v", got)
				}
				if !errors.Is(err, domain.ErrDecode) {
					t.Errorf("Complete() error = %v, want a DecodeError", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Complete() unexpected error: %v", err)
			}
			if got.Text != tt.wantText {
				t.Errorf("Complete() text = %q, want %q", got.Text, tt.wantText)
			}
			if got.IsError {
				t.Errorf("Complete() IsError = true, want false")
			}
		})
	}
}

func TestCompleteJambaEmptyChoices(t *testing.T) {
	got, err := Complete([]byte(`{"choices":[]}`), capabilities.SubtypeJambaInstruct)
	if err != nil {
		t.Fatalf("Complete() unexpected error: %v", err)
	}
	if got.Text != "No response from the model." {
		t.Errorf("Complete() text = %q, want fixed fallback", got.Text)
	}
	if !got.IsError {
		t.Errorf("Complete() IsError = false, want true")
	}
}

func TestCompleteEmbeddings(t *testing.T) {
	tests := []struct {
		name    string
		subtype capabilities.Subtype
		payload string
		want    string
	}{
		{
			name:    "titan embed vector",
			subtype: capabilities.SubtypeTitanEmbed,
			payload: `{"embedding":[0.1,0.2,0.3]}`,
			want:    "0.1,0.2,0.3",
		},
		{
			name:    "cohere embed first vector",
			subtype: capabilities.SubtypeCohereEmbed,
			payload: `{"embeddings":[[-0.5,1,2.25]]}`,
			want:    "-0.5,1,2.25",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Complete([]byte(tt.payload), tt.subtype)
			if err != nil {
				t.Fatalf("Complete() unexpected error: %v", err)
			}
			if got.Text != tt.want {
				t.Errorf("Complete() text = %q, want %q", got.Text, tt.want)
			}
		})
	}
}

func TestCompleteImages(t *testing.T) {
	imgBytes := []byte{0x89, 0x50, 0x4e, 0x47}
	encoded := base64.StdEncoding.EncodeToString(imgBytes)

	tests := []struct {
		name    string
		subtype capabilities.Subtype
		payload string
	}{
		{
			name:    "titan image",
			subtype: capabilities.SubtypeTitanImage,
			payload: `{"images":["` + encoded + `"]}`,
		},
		{
			name:    "stable diffusion artifact",
			subtype: capabilities.SubtypeStableDiffusion,
			payload: `{"artifacts":[{"base64":"` + encoded + `"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Complete([]byte(tt.payload), tt.subtype)
			if err != nil {
				t.Fatalf("Complete() unexpected error: %v", err)
			}
			if !bytes.Equal(got.Image, imgBytes) {
				t.Errorf("Complete() image = %v, want %v", got.Image, imgBytes)
			}
		})
	}
}

func TestChunk(t *testing.T) {
	tests := []struct {
		name      string
		subtype   capabilities.Subtype
		payload   string
		wantText  string
		wantDone  bool
		wantUnrec bool
	}{
		{
			name:     "claude text delta",
			subtype:  capabilities.SubtypeClaude,
			payload:  `{"type":"content_block_delta","delta":{"type":"text_delta","text":"He"}}`,
			wantText: "He",
		},
		{
			name:     "claude bare delta without envelope type",
			subtype:  capabilities.SubtypeClaude,
			payload:  `{"delta":{"type":"text_delta","text":"llo"}}`,
			wantText: "llo",
		},
		{
			name:      "claude bare delta of unknown kind",
			subtype:   capabilities.SubtypeClaude,
			payload:   `{"delta":{"type":"input_json_delta","partial_json":"{"}}`,
			wantUnrec: true,
		},
		{
			name:     "claude message delta carries stop reason",
			subtype:  capabilities.SubtypeClaude,
			payload:  `{"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":42}}`,
			wantDone: true,
		},
		{
			name:    "claude structural event is empty",
			subtype: capabilities.SubtypeClaude,
			payload: `{"type":"content_block_start","content_block":{"type":"text"}}`,
		},
		{
			name:      "claude unknown event type",
			subtype:   capabilities.SubtypeClaude,
			payload:   `{"type":"surprise"}`,
			wantUnrec: true,
		},
		{
			name:     "titan chunk",
			subtype:  capabilities.SubtypeTitan,
			payload:  `{"outputText":"partial"}`,
			wantText: "partial",
		},
		{
			name:     "titan final chunk",
			subtype:  capabilities.SubtypeTitan,
			payload:  `{"outputText":" end","completionReason":"FINISH"}`,
			wantText: " end",
			wantDone: true,
		},
		{
			name:     "legacy chat chunk",
			subtype:  capabilities.SubtypeLegacyChat,
			payload:  `{"completion":"llo"}`,
			wantText: "llo",
		},
		{
			name:     "llama generation chunk",
			subtype:  capabilities.SubtypeLlama,
			payload:  `{"generation":"word"}`,
			wantText: "word",
		},
		{
			name:     "mistral outputs chunk",
			subtype:  capabilities.SubtypeMistral,
			payload:  `{"outputs":[{"text":"word","stop_reason":"stop"}]}`,
			wantText: "word",
			wantDone: true,
		},
		{
			name:      "malformed chunk",
			subtype:   capabilities.SubtypeLegacyChat,
			payload:   `not json`,
			wantUnrec: true,
		},
		{
			name:      "non streaming subtype",
			subtype:   capabilities.SubtypeTitanEmbed,
			payload:   `{"embedding":[0.1]}`,
			wantUnrec: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Chunk([]byte(tt.payload), tt.subtype)

			if got.TextDelta != tt.wantText {
				t.Errorf("Chunk() text = %q, want %q", got.TextDelta, tt.wantText)
			}
			if got.IsDone() != tt.wantDone {
				t.Errorf("Chunk() done = %v, want %v", got.IsDone(), tt.wantDone)
			}
			if (got.Unrecognized != nil) != tt.wantUnrec {
				t.Errorf("Chunk() unrecognized = %v, want %v", got.Unrecognized != nil, tt.wantUnrec)
			}
		})
	}
}
