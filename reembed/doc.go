// Package reembed rebuilds the embeddings of stored articles, typically after
// switching to a new embedding model.
//
// Articles are read in batches across every entity partition, embedded with the
// configured embedder, normalized for cosine similarity and written back in place.
// Embedding calls are retried with exponential backoff.
package reembed
