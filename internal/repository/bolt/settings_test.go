package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSettings(t *testing.T) *Settings {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "settings.bolt"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStreamingOverrideLifecycle(t *testing.T) {
	s := openTestSettings(t)
	ctx := context.Background()

	_, ok, err := s.StreamingOverride(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetStreamingOverride(ctx, "c1", false))
	value, ok, err := s.StreamingOverride(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, value)

	require.NoError(t, s.SetStreamingOverride(ctx, "c1", true))
	value, ok, err = s.StreamingOverride(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, value)

	require.NoError(t, s.ClearStreamingOverride(ctx, "c1"))
	_, ok, err = s.StreamingOverride(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Clearing a missing override is not an error.
	assert.NoError(t, s.ClearStreamingOverride(ctx, "never-set"))
}
