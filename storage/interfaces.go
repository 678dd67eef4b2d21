package storage

import (
	"context"

	"github.com/poiesic/newswire/core"
)

// ArticleRepository stores articles partitioned by scope (the tracked entity)
// together with the embedding used for similarity search.
// Implementations must be thread-safe and support concurrent access.
type ArticleRepository interface {
	// FindSimilar finds stored articles in scope similar to the given vector.
	// Returns matches with similarity >= minSimilarity, up to limit results.
	// Results are ordered by similarity score (highest first).
	// Articles stored under a different scope are never returned.
	FindSimilar(ctx context.Context, scope string, vector []float32, minSimilarity float32, limit int) ([]*core.SimilarityMatch, error)

	// UpsertArticles writes one or more articles keyed by (Entity, ID).
	// Writing an article whose key already exists replaces it, so repeating
	// an upsert is harmless. Sets StoredAt if not already set.
	// Returns ErrInvalidQuery for articles without an ID or entity.
	UpsertArticles(ctx context.Context, articles ...*core.StoredArticle) ([]*core.StoredArticle, error)

	// GetArticle retrieves a single article by scope and ID.
	// Returns ErrNotFound if the article doesn't exist.
	GetArticle(ctx context.Context, scope, id string) (*core.StoredArticle, error)

	// GetArticles retrieves every article stored under scope.
	GetArticles(ctx context.Context, scope string) ([]*core.StoredArticle, error)

	// ForEachArticle calls fn for every stored article across all scopes.
	// Iteration stops at the first error returned by fn.
	ForEachArticle(ctx context.Context, fn func(*core.StoredArticle) error) error

	// CountArticles returns the number of stored articles across all scopes.
	CountArticles(ctx context.Context) (int, error)

	// DeleteArticles removes articles from scope by ID.
	// Returns ErrNotFound if any article doesn't exist.
	DeleteArticles(ctx context.Context, scope string, ids ...string) error

	// Close releases resources held by the repository.
	Close() error
}
