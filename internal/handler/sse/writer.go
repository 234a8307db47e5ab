// Package sse has the plumbing for server-sent event connections.
package sse

import (
	"fmt"
	"net/http"
	"time"
)

// DefaultKeepAliveInterval is safe for common reverse proxies.
const DefaultKeepAliveInterval = 10 * time.Second

// Writer pushes SSE frames over one client connection. It is not safe for
// concurrent use; callers serialize events and keep-alives on one loop.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewWriter wraps a response writer that supports flushing.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}
	return &Writer{w: w, flusher: flusher}, nil
}

// WriteEvent writes a pre-formatted SSE frame and flushes it out.
func (s *Writer) WriteEvent(frame string) error {
	if _, err := fmt.Fprint(s.w, frame); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	s.flusher.Flush()
	return nil
}

// WriteKeepAlive writes an SSE comment line. Comment lines are ignored by
// clients but keep intermediaries from timing the connection out.
func (s *Writer) WriteKeepAlive() error {
	if _, err := fmt.Fprint(s.w, ": keepalive\n\n"); err != nil {
		return fmt.Errorf("write keepalive: %w", err)
	}
	s.flusher.Flush()
	return nil
}
