package reembed

import (
	"context"
	"fmt"

	"github.com/poiesic/newswire/ai"
	"github.com/poiesic/newswire/core"
	"github.com/poiesic/newswire/index"
	"github.com/poiesic/newswire/retry"
	"github.com/poiesic/newswire/storage"
)

// BatchProcessor handles embedding generation for batches of stored articles.
type BatchProcessor struct {
	repo     storage.ArticleRepository
	embedder ai.Embedder
	policy   retry.Policy
}

// NewBatchProcessor creates a new batch processor.
// policy controls retries of the embedding call.
func NewBatchProcessor(repo storage.ArticleRepository, embedder ai.Embedder, policy retry.Policy) *BatchProcessor {
	return &BatchProcessor{
		repo:     repo,
		embedder: embedder,
		policy:   policy,
	}
}

// Process generates embeddings for a batch of articles and writes them back.
// Vectors are normalized after embedding to ensure compatibility with cosine similarity.
func (bp *BatchProcessor) Process(ctx context.Context, articles []*core.StoredArticle) error {
	if len(articles) == 0 {
		return nil
	}

	texts := make([]string, len(articles))
	for i, article := range articles {
		texts[i] = article.SearchText()
	}

	var embeddings [][]float32
	err := retry.Do(ctx, bp.policy, func(ctx context.Context) error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.policy.MaxAttempts, err)
	}

	if len(embeddings) != len(articles) {
		return fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingMismatch, len(articles), len(embeddings))
	}

	for i, article := range articles {
		article.Vector = index.NormalizeVector(embeddings[i])
		if article.ContentID == 0 {
			article.ContentID = core.ContentID(article.Title)
		}
	}

	if _, err := bp.repo.UpsertArticles(ctx, articles...); err != nil {
		return fmt.Errorf("failed to update articles: %w", err)
	}

	return nil
}
