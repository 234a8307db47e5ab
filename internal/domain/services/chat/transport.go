package chat

import (
	"context"

	chatModels "bedrockchat/internal/domain/models/chat"
)

// ModelInvoker is the transport collaborator that actually calls the
// inference API. Implementations own wire transport, signing and retries;
// the orchestration core only sees opaque response payloads, decodable per
// the model subtype's documented shape.
//
// Streaming methods return a channel of raw chunk payloads which closes when
// the stream ends. Implementations must stop producing promptly once ctx is
// cancelled.
type ModelInvoker interface {
	// InvokeConversational sends structured turns and returns the complete
	// response payload.
	InvokeConversational(ctx context.Context, modelID string, turns []chatModels.ConversationTurn) ([]byte, error)

	// InvokeConversationalStream sends structured turns and streams chunk
	// payloads as they arrive.
	InvokeConversationalStream(ctx context.Context, modelID string, turns []chatModels.ConversationTurn) (<-chan []byte, error)

	// InvokeCompletion sends a flat prompt and returns the complete response
	// payload.
	InvokeCompletion(ctx context.Context, modelID, prompt string) ([]byte, error)

	// InvokeCompletionStream sends a flat prompt and streams chunk payloads.
	InvokeCompletionStream(ctx context.Context, modelID, prompt string) (<-chan []byte, error)

	// InvokeImageGeneration sends a prompt-only request to an image model and
	// returns the complete response payload (image bytes are extracted by the
	// subtype decoder).
	InvokeImageGeneration(ctx context.Context, modelID, prompt string) ([]byte, error)
}
