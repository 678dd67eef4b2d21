package index

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/newswire/ai"
	"github.com/poiesic/newswire/core"
	"github.com/poiesic/newswire/retry"
	"github.com/poiesic/newswire/storage"
)

// SemanticIndex is the nearest-neighbour service consulted by deduplication.
// Scope is the entity name and partitions the index: a query never returns
// articles upserted under a different scope.
type SemanticIndex interface {
	// Query returns up to topK stored articles in scope most similar to text,
	// best match first.
	Query(ctx context.Context, text, scope string, topK int) ([]core.SimilarityMatch, error)

	// Upsert stores article under id, scoped to article.Entity.
	// Upserting an existing id replaces the previous entry.
	Upsert(ctx context.Context, id, text string, article core.Article) error
}

// VectorIndex is a SemanticIndex backed by an embedder and an article repository.
type VectorIndex struct {
	embedder      ai.Embedder
	repo          storage.ArticleRepository
	minSimilarity float32
	logger        *slog.Logger
}

var _ SemanticIndex = (*VectorIndex)(nil)

// Option configures a VectorIndex.
type Option func(*VectorIndex) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(v *VectorIndex) error {
		if logger == nil {
			logger = slog.Default()
		}
		v.logger = logger
		return nil
	}
}

// WithMinSimilarity drops neighbours scoring below min from query results.
// Default is 0.
func WithMinSimilarity(min float32) Option {
	return func(v *VectorIndex) error {
		if min < -1 || min > 1 {
			return fmt.Errorf("min similarity must be within [-1, 1], got %.2f", min)
		}
		v.minSimilarity = min
		return nil
	}
}

// NewVectorIndex creates a VectorIndex.
func NewVectorIndex(embedder ai.Embedder, repo storage.ArticleRepository, opts ...Option) (*VectorIndex, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if repo == nil {
		return nil, ErrRepositoryRequired
	}

	v := &VectorIndex{
		embedder: embedder,
		repo:     repo,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}
	v.logger = v.logger.With("component", "vector-index")
	return v, nil
}

// Query embeds text and searches scope for its nearest neighbours.
func (v *VectorIndex) Query(ctx context.Context, text, scope string, topK int) ([]core.SimilarityMatch, error) {
	if scope == "" || topK <= 0 {
		return nil, retry.Permanent(fmt.Errorf("%w: scope and a positive topK are required", ErrQuery))
	}

	vector, err := v.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding: %w", ErrQuery, err)
	}

	matches, err := v.repo.FindSimilar(ctx, scope, NormalizeVector(vector), v.minSimilarity, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}

	results := make([]core.SimilarityMatch, len(matches))
	for i, m := range matches {
		results[i] = *m
	}
	v.logger.Debug("index query", "scope", scope, "matches", len(results))
	return results, nil
}

// Upsert embeds text and stores article under id.
func (v *VectorIndex) Upsert(ctx context.Context, id, text string, article core.Article) error {
	if strings.TrimSpace(id) == "" || article.Entity == "" {
		return retry.Permanent(fmt.Errorf("%w: id and entity are required", ErrWrite))
	}

	vector, err := v.embedder.EmbedText(ctx, text)
	if err != nil {
		return fmt.Errorf("%w: embedding: %w", ErrWrite, err)
	}

	article.ID = id
	stored := &core.StoredArticle{
		Article:   article,
		ContentID: core.ContentID(article.Title),
		Vector:    NormalizeVector(vector),
	}
	if _, err := v.repo.UpsertArticles(ctx, stored); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}
