package imagestore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteImage(t *testing.T) {
	dir := t.TempDir()
	store, err := New(filepath.Join(dir, "images"))
	require.NoError(t, err)

	path, err := store.WriteImage([]byte("png bytes"), "gen.png")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("png bytes"), data)
}

func TestWriteImageSanitizesName(t *testing.T) {
	dir := t.TempDir()
	store, err := New(filepath.Join(dir, "images"))
	require.NoError(t, err)

	path, err := store.WriteImage([]byte("x"), "../../escape.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "images", "escape.png"), path)

	_, err = store.WriteImage([]byte("x"), "   ")
	assert.Error(t, err)
}
