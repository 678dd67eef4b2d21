package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyText is returned when asked to embed blank text.
	ErrEmptyText = errors.New("cannot embed empty text")

	// ErrEmptyEmbedding is returned when the service answers without a vector.
	ErrEmptyEmbedding = errors.New("embedding service returned no vector")
)

// StatusError is a non-200 answer from an AI service.
// It satisfies retry.StatusCoder so callers can tell auth failures from outages.
type StatusError struct {
	Code int
	Err  error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %v", e.Code, e.Err)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status code reported by the service.
func (e *StatusError) StatusCode() int {
	return e.Code
}
