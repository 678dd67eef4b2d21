package dedup

import "errors"

var (
	// ErrIndexRequired is returned when no semantic index is supplied.
	ErrIndexRequired = errors.New("semantic index is required")

	// ErrInvalidThreshold is returned when the threshold is outside (0, 1].
	ErrInvalidThreshold = errors.New("threshold must be within (0, 1]")

	// ErrInvalidTopK is returned when topK is not positive.
	ErrInvalidTopK = errors.New("topK must be greater than 0")
)
