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

	"github.com/poiesic/newswire/core"
	"github.com/poiesic/newswire/storage"
)

const (
	// DefaultBatchSize is the default number of articles handed to each batch
	DefaultBatchSize = 100
)

// ArticleIterator iterates over every stored article in batches.
type ArticleIterator struct {
	repo      storage.ArticleRepository
	batchSize int
}

// NewArticleIterator creates a new article iterator.
// batchSize: number of articles per batch; non-positive values use DefaultBatchSize
func NewArticleIterator(repo storage.ArticleRepository, batchSize int) *ArticleIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &ArticleIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach calls fn for each batch of stored articles across all entities.
// Iteration stops on first error from fn or when all articles are processed.
// Context cancellation is checked between batches.
func (it *ArticleIterator) ForEach(ctx context.Context, fn func([]*core.StoredArticle) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	batch := make([]*core.StoredArticle, 0, it.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		batch = make([]*core.StoredArticle, 0, it.batchSize)

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		return nil
	}

	err := it.repo.ForEachArticle(ctx, func(article *core.StoredArticle) error {
		batch = append(batch, article)
		if len(batch) < it.batchSize {
			return nil
		}
		return flush()
	})
	if err != nil {
		return err
	}

	return flush()
}
