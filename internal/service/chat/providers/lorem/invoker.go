// Package lorem is a mock model invoker that generates lorem ipsum text in
// each model family's wire format. It lets the full send pipeline run,
// decoders included, without AWS credentials.
package lorem

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	loremgen "github.com/bozaro/golorem"

	"bedrockchat/internal/capabilities"
	chatModels "bedrockchat/internal/domain/models/chat"
)

// tinyPNG is a 1x1 transparent PNG, already base64 for the image envelopes.
const tinyPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

// Invoker fabricates responses shaped like the real service's payloads for
// whatever subtype the model id classifies to.
type Invoker struct {
	registry  *capabilities.Registry
	generator *loremgen.Lorem
	delay     time.Duration
}

// NewInvoker creates a mock invoker. delay is the pause between streamed
// chunks; zero streams as fast as the consumer reads.
func NewInvoker(registry *capabilities.Registry, delay time.Duration) *Invoker {
	return &Invoker{
		registry:  registry,
		generator: loremgen.New(),
		delay:     delay,
	}
}

func (i *Invoker) InvokeConversational(_ context.Context, modelID string, _ []chatModels.ConversationTurn) ([]byte, error) {
	return i.completePayload(modelID)
}

func (i *Invoker) InvokeConversationalStream(ctx context.Context, modelID string, _ []chatModels.ConversationTurn) (<-chan []byte, error) {
	return i.stream(ctx, modelID)
}

func (i *Invoker) InvokeCompletion(_ context.Context, modelID string, _ string) ([]byte, error) {
	return i.completePayload(modelID)
}

func (i *Invoker) InvokeCompletionStream(ctx context.Context, modelID string, _ string) (<-chan []byte, error) {
	return i.stream(ctx, modelID)
}

func (i *Invoker) InvokeImageGeneration(_ context.Context, modelID string, _ string) ([]byte, error) {
	subtype := i.registry.Classify(modelID).Subtype
	if subtype == capabilities.SubtypeStableDiffusion {
		return json.Marshal(map[string]any{
			"artifacts": []map[string]string{{"base64": tinyPNG}},
		})
	}
	return json.Marshal(map[string]any{"images": []string{tinyPNG}})
}

// completePayload wraps generated text in the subtype's complete-response
// envelope.
func (i *Invoker) completePayload(modelID string) ([]byte, error) {
	subtype := i.registry.Classify(modelID).Subtype
	text := i.generator.Paragraph(1, 3)

	switch subtype {
	case capabilities.SubtypeClaude:
		return json.Marshal(map[string]any{
			"content": []map[string]string{{"type": "text", "text": text}},
		})
	case capabilities.SubtypeTitan:
		return json.Marshal(map[string]any{
			"results": []map[string]string{{"outputText": text}},
		})
	case capabilities.SubtypeLegacyChat:
		return json.Marshal(map[string]string{"completion": text})
	case capabilities.SubtypeLlama:
		return json.Marshal(map[string]string{"generation": text})
	case capabilities.SubtypeMistral:
		return json.Marshal(map[string]any{
			"outputs": []map[string]string{{"text": text}},
		})
	case capabilities.SubtypeAI21:
		return json.Marshal(map[string]any{
			"completions": []map[string]any{{"data": map[string]string{"text": text}}},
		})
	case capabilities.SubtypeCohereCommand:
		return json.Marshal(map[string]any{
			"generations": []map[string]string{{"text": text}},
		})
	case capabilities.SubtypeJambaInstruct:
		return json.Marshal(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": text}}},
		})
	case capabilities.SubtypeCohereEmbed:
		return json.Marshal(map[string]any{"embeddings": [][]float64{{0.1, 0.2, 0.3}}})
	case capabilities.SubtypeTitanEmbed:
		return json.Marshal(map[string]any{"embedding": []float64{0.1, 0.2, 0.3}})
	default:
		return nil, fmt.Errorf("lorem invoker cannot mock subtype %q", subtype)
	}
}

// stream emits the generated text word by word in the subtype's chunk
// envelope, then closes the channel.
func (i *Invoker) stream(ctx context.Context, modelID string) (<-chan []byte, error) {
	subtype := i.registry.Classify(modelID).Subtype
	words := strings.Fields(i.generator.Paragraph(1, 2))

	ch := make(chan []byte)
	go func() {
		defer close(ch)
		for idx, word := range words {
			chunk, err := chunkPayload(subtype, word+" ", idx == len(words)-1)
			if err != nil {
				return
			}
			select {
			case ch <- chunk:
			case <-ctx.Done():
				return
			}
			if i.delay > 0 {
				select {
				case <-time.After(i.delay):
				case <-ctx.Done():
					return
				}
			}
		}
		if final := finalChunk(subtype); final != nil {
			select {
			case ch <- final:
			case <-ctx.Done():
			}
		}
	}()
	return ch, nil
}

func chunkPayload(subtype capabilities.Subtype, delta string, last bool) ([]byte, error) {
	switch subtype {
	case capabilities.SubtypeClaude:
		return json.Marshal(map[string]any{
			"type":  "content_block_delta",
			"delta": map[string]string{"type": "text_delta", "text": delta},
		})
	case capabilities.SubtypeTitan:
		body := map[string]any{"outputText": delta}
		if last {
			body["completionReason"] = "FINISH"
		}
		return json.Marshal(body)
	case capabilities.SubtypeLegacyChat:
		body := map[string]any{"completion": delta}
		if last {
			body["stop_reason"] = "stop_sequence"
		}
		return json.Marshal(body)
	case capabilities.SubtypeLlama:
		body := map[string]any{"generation": delta}
		if last {
			body["stop_reason"] = "stop"
		}
		return json.Marshal(body)
	case capabilities.SubtypeMistral:
		out := map[string]any{"text": delta}
		if last {
			out["stop_reason"] = "stop"
		}
		return json.Marshal(map[string]any{"outputs": []map[string]any{out}})
	default:
		// Subtypes without a streaming form fall back to a claude-shaped
		// delta so a misconfigured model still produces visible text.
		return json.Marshal(map[string]any{
			"type":  "content_block_delta",
			"delta": map[string]string{"type": "text_delta", "text": delta},
		})
	}
}

func finalChunk(subtype capabilities.Subtype) []byte {
	if subtype == capabilities.SubtypeClaude {
		return []byte(`{"type":"message_stop"}`)
	}
	return nil
}
