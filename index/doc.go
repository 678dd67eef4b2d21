// Package index provides the semantic index used for deduplication and search.
//
// A SemanticIndex answers nearest-neighbour queries over article text, scoped
// to one tracked entity, and accepts idempotent upserts keyed by article ID.
// VectorIndex implements it by embedding text with an ai.Embedder, normalizing
// the vector to unit length and storing it next to the article in a
// storage.ArticleRepository. With unit vectors the dot product computed by
// the repository equals cosine similarity.
package index
