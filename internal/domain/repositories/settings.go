package repositories

import (
	"context"
)

// Settings is the key-value port for per-conversation preferences.
//
// The streaming override, when present, takes precedence over the model
// family's default streaming preference.
type Settings interface {
	// StreamingOverride returns the persisted streaming preference for a
	// conversation. ok is false when no override has been stored.
	StreamingOverride(ctx context.Context, conversationID string) (value bool, ok bool, err error)

	// SetStreamingOverride stores the streaming preference.
	SetStreamingOverride(ctx context.Context, conversationID string, value bool) error

	// ClearStreamingOverride removes the override so the family default
	// applies again. Clearing a missing override is not an error.
	ClearStreamingOverride(ctx context.Context, conversationID string) error
}
