package source

import (
	"errors"
	"fmt"
)

var (
	// ErrSource indicates raw candidates could not be collected for an entity.
	ErrSource = errors.New("source fetch failed")

	// ErrNoAdapters is returned when Multi is built without adapters.
	ErrNoAdapters = errors.New("at least one adapter is required")
)

// HTTPStatusError reports an unexpected HTTP response status from a news provider.
type HTTPStatusError struct {
	Code int
	URL  string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// StatusCode returns the HTTP status code.
func (e *HTTPStatusError) StatusCode() int {
	return e.Code
}
