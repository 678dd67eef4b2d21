package index

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/newswire/ai/mock"
	"github.com/poiesic/newswire/core"
	"github.com/poiesic/newswire/retry"
	"github.com/poiesic/newswire/storage"
	"github.com/poiesic/newswire/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupIndex(t *testing.T) (*VectorIndex, storage.ArticleRepository, *mock.MockEmbedder) {
	t.Helper()

	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	embedder := mock.NewMockEmbedder()
	idx, err := NewVectorIndex(embedder, repo)
	require.NoError(t, err)
	return idx, repo, embedder
}

func testArticle(entity, title string) core.Article {
	return core.Article{
		Title:          title,
		URL:            "https://news.example.com/" + title,
		Entity:         entity,
		RelevanceScore: 5,
	}
}

func TestNewVectorIndex_RequiresCollaborators(t *testing.T) {
	_, err := NewVectorIndex(nil, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewVectorIndex(mock.NewMockEmbedder(), nil)
	assert.ErrorIs(t, err, ErrRepositoryRequired)
}

func TestVectorIndex_UpsertThenQuery(t *testing.T) {
	ctx := context.Background()
	idx, _, _ := setupIndex(t)

	article := testArticle("Acme", "Acme launches rocket")
	require.NoError(t, idx.Upsert(ctx, "id-1", article.SearchText(), article))

	matches, err := idx.Query(ctx, article.SearchText(), "Acme", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "id-1", matches[0].ArticleID)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-5)
	assert.Equal(t, "Acme launches rocket", matches[0].Article.Title)
}

func TestVectorIndex_ScopeIsolation(t *testing.T) {
	ctx := context.Background()
	idx, _, _ := setupIndex(t)

	article := testArticle("Acme", "Shared headline")
	require.NoError(t, idx.Upsert(ctx, "id-1", article.SearchText(), article))

	matches, err := idx.Query(ctx, article.SearchText(), "Globex", 10)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestVectorIndex_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	idx, repo, _ := setupIndex(t)

	article := testArticle("Acme", "Same story")
	require.NoError(t, idx.Upsert(ctx, "id-1", article.SearchText(), article))
	require.NoError(t, idx.Upsert(ctx, "id-1", article.SearchText(), article))

	count, err := repo.CountArticles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stored, err := repo.GetArticle(ctx, "Acme", "id-1")
	require.NoError(t, err)
	assert.Equal(t, core.ContentID("Same story"), stored.ContentID)
	assert.NotEmpty(t, stored.Vector)
}

func TestVectorIndex_QueryEmbedFailure(t *testing.T) {
	idx, _, embedder := setupIndex(t)
	embedder.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
		return nil, errors.New("embedding service down")
	}

	_, err := idx.Query(context.Background(), "text", "Acme", 10)
	assert.ErrorIs(t, err, ErrQuery)
	assert.True(t, retry.IsTransient(err))
}

func TestVectorIndex_InvalidInputIsPermanent(t *testing.T) {
	idx, _, _ := setupIndex(t)
	ctx := context.Background()

	err := idx.Upsert(ctx, "", "text", testArticle("Acme", "x"))
	assert.ErrorIs(t, err, ErrWrite)
	assert.False(t, retry.IsTransient(err))

	_, err = idx.Query(ctx, "text", "", 10)
	assert.ErrorIs(t, err, ErrQuery)
	assert.False(t, retry.IsTransient(err))
}
