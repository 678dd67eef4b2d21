package newsapi

import "errors"

var (
	// ErrAPIKeyRequired is returned when no API key is configured.
	ErrAPIKeyRequired = errors.New("newsapi: API key is required")

	// ErrMalformedResponse indicates a response body that is not a NewsAPI result.
	ErrMalformedResponse = errors.New("newsapi: malformed response")
)
