package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface keeps the handler error mapping extensible.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a conversation never materialized, even after
	// the lazy-initialization retry budget was exhausted.
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input (e.g. an empty send).
	ValidationError struct {
		Message string
	}

	// TransportError indicates the model invocation collaborator failed.
	TransportError struct {
		Message string
	}

	// DecodeError indicates a response payload did not match the shape
	// documented for its model subtype.
	DecodeError struct {
		Message string
	}
)

// Error implementations
func (e *NotFoundError) Error() string   { return e.Message }
func (e *ValidationError) Error() string { return e.Message }
func (e *TransportError) Error() string  { return e.Message }
func (e *DecodeError) Error() string     { return e.Message }

// StatusCode implementations (HTTPError interface)
func (e *NotFoundError) StatusCode() int   { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }
func (e *TransportError) StatusCode() int  { return http.StatusBadGateway }
func (e *DecodeError) StatusCode() int     { return http.StatusBadGateway }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrTransport  = errors.New("transport failed")
	ErrDecode     = errors.New("decode failed")
	ErrConflict   = errors.New("already exists")
)

// Is implementations so typed errors match their sentinels via errors.Is()
func (e *NotFoundError) Is(target error) bool   { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
func (e *TransportError) Is(target error) bool  { return target == ErrTransport }
func (e *DecodeError) Is(target error) bool     { return target == ErrDecode }
