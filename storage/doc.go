// Package storage provides the storage abstraction layer for newswire.
//
// This package defines the repository interface that decouples article
// persistence from the pipeline. The BadgerDB implementation lives in
// storage/badger; tests use its in-memory mode.
//
// # Scopes
//
// Every article is stored under a scope, the name of the tracked entity it
// belongs to. Scopes are hard partitions: similarity queries never cross them,
// so two companies covered by the same story never deduplicate each other.
//
// # Idempotency
//
// Articles are keyed by (scope, ID). UpsertArticles overwrites an existing
// key instead of failing, so a retried write after a timeout cannot create
// a second copy.
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//	repo := badger.NewArticleRepository(backend)
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
