package ingestion

import "errors"

var (
	// ErrNoEntities is returned when the pipeline is configured without entities.
	ErrNoEntities = errors.New("at least one entity is required")

	// ErrInvalidEntity is returned for blank or repeated entity names.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrSourceRequired is returned when a source adapter is not provided.
	ErrSourceRequired = errors.New("source adapter required")

	// ErrDeduplicatorRequired is returned when a deduplicator is not provided.
	ErrDeduplicatorRequired = errors.New("deduplicator required")

	// ErrStorerRequired is returned when a storer is not provided.
	ErrStorerRequired = errors.New("storer required")

	// ErrIndexRequired is returned when a semantic index is not provided.
	ErrIndexRequired = errors.New("semantic index required")

	// ErrInvalidWorkers is returned for a worker count below 1.
	ErrInvalidWorkers = errors.New("worker count must be greater than 0")

	// ErrStoreHalted marks articles skipped after the index rejected the caller's credentials.
	ErrStoreHalted = errors.New("store halted after authentication failure")

	// ErrStagePanic indicates a stage panicked; the panic value is in the message.
	ErrStagePanic = errors.New("stage panicked")
)
