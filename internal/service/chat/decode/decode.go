// Package decode extracts text and image content from model response
// payloads. One pure function per direction: Complete for full responses,
// Chunk for one unit of a streamed response. Each model subtype has a fixed,
// documented response shape; anything that does not match decodes to a
// domain.DecodeError rather than a panic or a zero value.
package decode

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"bedrockchat/internal/capabilities"
	"bedrockchat/internal/domain"
)

// jambaNoResponse is the fixed fallback when a Jamba response carries no
// choices. Surfaced as message text with IsError set, not as a decode error.
const jambaNoResponse = "No response from the model."

// Result is the outcome of decoding a complete response payload.
//
// Exactly one of Text or Image is populated. IsError marks results that are
// valid decodes of an error-shaped response (e.g. Jamba with no choices);
// malformed payloads return a domain.DecodeError instead.
type Result struct {
	Text    string
	Image   []byte
	IsError bool
}

// Per-subtype response envelopes. Field paths follow the documented Bedrock
// response shapes for each model family.
type (
	claudeResponse struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}

	titanResponse struct {
		Results []struct {
			OutputText string `json:"outputText"`
		} `json:"results"`
	}

	legacyChatResponse struct {
		Completion *string `json:"completion"`
	}

	llamaResponse struct {
		Generation *string `json:"generation"`
		Outputs    []struct {
			Text string `json:"text"`
		} `json:"outputs"`
	}

	mistralResponse struct {
		Outputs []struct {
			Text string `json:"text"`
		} `json:"outputs"`
	}

	ai21Response struct {
		Completions []struct {
			Data struct {
				Text string `json:"text"`
			} `json:"data"`
		} `json:"completions"`
	}

	cohereResponse struct {
		Generations []struct {
			Text string `json:"text"`
		} `json:"generations"`
	}

	cohereEmbedResponse struct {
		Embeddings [][]float64 `json:"embeddings"`
	}

	titanEmbedResponse struct {
		Embedding []float64 `json:"embedding"`
	}

	jambaResponse struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	titanImageResponse struct {
		Images []string `json:"images"`
	}

	stableDiffusionResponse struct {
		Artifacts []struct {
			Base64 string `json:"base64"`
		} `json:"artifacts"`
	}
)

// Complete extracts the content of a complete response payload for the given
// subtype. Pure; safe for concurrent use.
func Complete(payload []byte, subtype capabilities.Subtype) (Result, error) {
	switch subtype {
	case capabilities.SubtypeClaude:
		var resp claudeResponse
		if err := unmarshal(payload, &resp); err != nil {
			return Result{}, err
		}
		var b strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				b.WriteString(block.Text)
			}
		}
		if b.Len() == 0 && len(resp.Content) == 0 {
			return Result{}, decodeErr(subtype, "response has no content blocks")
		}
		return Result{Text: b.String()}, nil

	case capabilities.SubtypeTitan:
		var resp titanResponse
		if err := unmarshal(payload, &resp); err != nil {
			return Result{}, err
		}
		if len(resp.Results) == 0 {
			return Result{}, decodeErr(subtype, "response has no results")
		}
		return Result{Text: resp.Results[0].OutputText}, nil

	case capabilities.SubtypeLegacyChat:
		var resp legacyChatResponse
		if err := unmarshal(payload, &resp); err != nil {
			return Result{}, err
		}
		if resp.Completion == nil {
			return Result{}, decodeErr(subtype, "response has no completion field")
		}
		return Result{Text: *resp.Completion}, nil

	case capabilities.SubtypeLlama:
		var resp llamaResponse
		if err := unmarshal(payload, &resp); err != nil {
			return Result{}, err
		}
		// generation is the documented field; older deployments return
		// outputs[0].text instead.
		if resp.Generation != nil {
			return Result{Text: *resp.Generation}, nil
		}
		if len(resp.Outputs) > 0 {
			return Result{Text: resp.Outputs[0].Text}, nil
		}
		return Result{}, decodeErr(subtype, "response has neither generation nor outputs")

	case capabilities.SubtypeMistral:
		var resp mistralResponse
		if err := unmarshal(payload, &resp); err != nil {
			return Result{}, err
		}
		if len(resp.Outputs) == 0 {
			return Result{}, decodeErr(subtype, "response has no outputs")
		}
		return Result{Text: resp.Outputs[0].Text}, nil

	case capabilities.SubtypeAI21:
		var resp ai21Response
		if err := unmarshal(payload, &resp); err != nil {
			return Result{}, err
		}
		if len(resp.Completions) == 0 {
			return Result{}, decodeErr(subtype, "response has no completions")
		}
		return Result{Text: resp.Completions[0].Data.Text}, nil

	case capabilities.SubtypeCohereCommand:
		var resp cohereResponse
		if err := unmarshal(payload, &resp); err != nil {
			return Result{}, err
		}
		if len(resp.Generations) == 0 {
			return Result{}, decodeErr(subtype, "response has no generations")
		}
		return Result{Text: resp.Generations[0].Text}, nil

	case capabilities.SubtypeCohereEmbed:
		var resp cohereEmbedResponse
		if err := unmarshal(payload, &resp); err != nil {
			return Result{}, err
		}
		if len(resp.Embeddings) == 0 {
			return Result{}, decodeErr(subtype, "response has no embeddings")
		}
		return Result{Text: formatVector(resp.Embeddings[0])}, nil

	case capabilities.SubtypeTitanEmbed:
		var resp titanEmbedResponse
		if err := unmarshal(payload, &resp); err != nil {
			return Result{}, err
		}
		if len(resp.Embedding) == 0 {
			return Result{}, decodeErr(subtype, "response has no embedding")
		}
		return Result{Text: formatVector(resp.Embedding)}, nil

	case capabilities.SubtypeJambaInstruct:
		var resp jambaResponse
		if err := unmarshal(payload, &resp); err != nil {
			return Result{}, err
		}
		if len(resp.Choices) == 0 {
			return Result{Text: jambaNoResponse, IsError: true}, nil
		}
		return Result{Text: resp.Choices[0].Message.Content}, nil

	case capabilities.SubtypeTitanImage:
		var resp titanImageResponse
		if err := unmarshal(payload, &resp); err != nil {
			return Result{}, err
		}
		if len(resp.Images) == 0 {
			return Result{}, decodeErr(subtype, "response has no images")
		}
		data, err := decodeBase64(resp.Images[0])
		if err != nil {
			return Result{}, decodeErr(subtype, "image payload is not valid base64")
		}
		return Result{Image: data}, nil

	case capabilities.SubtypeStableDiffusion:
		var resp stableDiffusionResponse
		if err := unmarshal(payload, &resp); err != nil {
			return Result{}, err
		}
		if len(resp.Artifacts) == 0 {
			return Result{}, decodeErr(subtype, "response has no artifacts")
		}
		data, err := decodeBase64(resp.Artifacts[0].Base64)
		if err != nil {
			return Result{}, decodeErr(subtype, "artifact payload is not valid base64")
		}
		return Result{Image: data}, nil

	default:
		return Result{}, decodeErr(subtype, "unsupported model subtype")
	}
}

// formatVector renders an embedding vector as a comma-separated decimal
// string, e.g. [0.1, 0.2, 0.3] -> "0.1,0.2,0.3".
func formatVector(vec []float64) string {
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func decodeBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

func unmarshal(payload []byte, dest interface{}) error {
	if err := json.Unmarshal(payload, dest); err != nil {
		return &domain.DecodeError{Message: fmt.Sprintf("invalid response payload: %v", err)}
	}
	return nil
}

func decodeErr(subtype capabilities.Subtype, reason string) error {
	return &domain.DecodeError{Message: fmt.Sprintf("%s: %s", subtype, reason)}
}
