// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/newswire/ai"
	"github.com/poiesic/newswire/core"
	"github.com/poiesic/newswire/retry"
	"github.com/poiesic/newswire/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of articles to embed in each call
	BatchSize int

	// ReportInterval is how often to report progress (number of articles)
	ReportInterval int

	// Retry controls retries of failed embedding calls
	Retry retry.Policy
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		Retry: retry.Policy{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    10 * time.Second,
		},
	}
}

// Reembedder orchestrates the reembedding of every stored article.
type Reembedder struct {
	repo      storage.ArticleRepository
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *ArticleIterator
	logger    *slog.Logger
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr); nil discards it
func NewReembedder(repo storage.ArticleRepository, embedder ai.Embedder, config *Config, progress io.Writer) (*Reembedder, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		repo:      repo,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(repo, embedder, config.Retry),
		iterator:  NewArticleIterator(repo, config.BatchSize),
		logger:    slog.Default().With("component", "reembedder"),
	}, nil
}

// Run reembeds every stored article with the configured embedder and
// returns how many articles were processed.
// Progress is reported to the configured writer.
func (r *Reembedder) Run(ctx context.Context) (int, error) {
	total, err := r.repo.CountArticles(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}

	if total == 0 {
		fmt.Fprintf(r.progress, "No articles found in database (0 articles)\n")
		return 0, nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d articles (batch size: %d)\n",
		total, r.iterator.batchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	processed := 0
	err = r.iterator.ForEach(ctx, func(articles []*core.StoredArticle) error {
		if err := r.processor.Process(ctx, articles); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		processed += len(articles)
		tracker.Update(processed)
		return nil
	})
	if err != nil {
		r.logger.Error("reembedding stopped", "processed", processed, "total", total, "err", err)
		return processed, err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	r.logger.Info("reembedding complete", "articles", processed, "elapsed", elapsed.Round(time.Millisecond))
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d articles in %v (%.1f articles/sec)\n",
		processed, elapsed.Round(time.Second), float64(processed)/elapsed.Seconds())

	return processed, nil
}
