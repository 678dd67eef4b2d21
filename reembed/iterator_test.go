package reembed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/newswire/core"
	"github.com/poiesic/newswire/storage"
	"github.com/poiesic/newswire/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (storage.ArticleRepository, func()) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		backend.Close()
	}

	return repo, cleanup
}

// seedArticles stores n articles without embeddings, alternating between two entities.
func seedArticles(t *testing.T, repo storage.ArticleRepository, n int) []*core.StoredArticle {
	articles := make([]*core.StoredArticle, n)
	for i := range n {
		entity := "Acme"
		if i%2 == 1 {
			entity = "Globex"
		}
		articles[i] = &core.StoredArticle{
			Article: core.Article{
				ID:             fmt.Sprintf("article-%03d", i),
				Title:          fmt.Sprintf("%s story %d", entity, i),
				Snippet:        "snippet",
				URL:            fmt.Sprintf("https://example.com/%d", i),
				Entity:         entity,
				RelevanceScore: 4,
			},
		}
	}
	stored, err := repo.UpsertArticles(context.Background(), articles...)
	require.NoError(t, err)
	return stored
}

func TestArticleIterator_Basic(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedArticles(t, repo, 3)

	iter := NewArticleIterator(repo, 2)
	var batches []int
	ids := map[string]bool{}

	err := iter.ForEach(ctx, func(articles []*core.StoredArticle) error {
		batches = append(batches, len(articles))
		for _, a := range articles {
			ids[a.ID] = true
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, batches)
	assert.Len(t, ids, 3, "should visit every article across entities")
}

func TestArticleIterator_BatchSizes(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	seedArticles(t, repo, 10)

	tests := []struct {
		name      string
		batchSize int
		expected  []int
	}{
		{"exact multiple", 5, []int{5, 5}},
		{"remainder", 3, []int{3, 3, 3, 1}},
		{"larger than total", 50, []int{10}},
		{"one at a time", 1, []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var batches []int
			err := NewArticleIterator(repo, tt.batchSize).ForEach(context.Background(), func(articles []*core.StoredArticle) error {
				batches = append(batches, len(articles))
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, batches)
		})
	}
}

func TestArticleIterator_EmptyDatabase(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	called := false
	err := NewArticleIterator(repo, 10).ForEach(context.Background(), func([]*core.StoredArticle) error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.False(t, called, "fn should not be called for an empty database")
}

func TestArticleIterator_ErrorHandling(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	seedArticles(t, repo, 6)

	expected := errors.New("batch failed")
	calls := 0
	err := NewArticleIterator(repo, 2).ForEach(context.Background(), func([]*core.StoredArticle) error {
		calls++
		return expected
	})

	assert.ErrorIs(t, err, expected)
	assert.Equal(t, 1, calls, "iteration should stop at the first error")
}

func TestArticleIterator_ContextCancellation(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	seedArticles(t, repo, 6)

	t.Run("cancelled before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := NewArticleIterator(repo, 2).ForEach(ctx, func([]*core.StoredArticle) error {
			t.Fatal("fn should not be called")
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("cancelled between batches", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		calls := 0
		err := NewArticleIterator(repo, 2).ForEach(ctx, func([]*core.StoredArticle) error {
			calls++
			cancel()
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

func TestArticleIterator_InvalidBatchSize(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	assert.Equal(t, DefaultBatchSize, NewArticleIterator(repo, 0).batchSize)
	assert.Equal(t, DefaultBatchSize, NewArticleIterator(repo, -5).batchSize)
}
