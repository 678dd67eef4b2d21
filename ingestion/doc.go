// Package ingestion drives news articles from collection to storage.
//
// Pipeline runs every configured entity through the same sequence of stages:
//   - Collecting: fetch raw candidates from the source adapter
//   - Scoring: validate, score and keep the most relevant candidates
//   - Deduplicating: drop candidates already present in the semantic index
//   - Storing: persist the remaining articles through the StorageCoordinator
//
// Entities are processed concurrently on a bounded worker pool. A failure in
// one entity is recorded on that entity's EntityRun and never affects the
// others. Within a batch, a failed write is counted and the remaining
// articles are still attempted.
package ingestion
