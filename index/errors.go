package index

import "errors"

var (
	// ErrQuery indicates a nearest-neighbour query could not be answered.
	ErrQuery = errors.New("semantic index query failed")

	// ErrWrite indicates an article could not be written to the index.
	ErrWrite = errors.New("semantic index write failed")

	// ErrEmbedderRequired is returned when no embedder is supplied.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrRepositoryRequired is returned when no article repository is supplied.
	ErrRepositoryRequired = errors.New("article repository is required")
)
