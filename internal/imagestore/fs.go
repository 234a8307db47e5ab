// Package imagestore writes generated images to local disk and hands back
// the path the chat log references.
package imagestore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore saves images under a single directory.
type FileStore struct {
	dir string
}

// New creates the image directory if needed and returns a store over it.
func New(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// WriteImage persists decoded image bytes and returns the stored file's
// path. The suggested name is sanitized to its base name so a caller can
// never write outside the store directory.
func (f *FileStore) WriteImage(data []byte, suggestedName string) (string, error) {
	name := filepath.Base(strings.TrimSpace(suggestedName))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid image name %q", suggestedName)
	}

	path := filepath.Join(f.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return path, nil
}
