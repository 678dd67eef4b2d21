package newswire

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/newswire/ai/mock"
	"github.com/poiesic/newswire/core"
	"github.com/poiesic/newswire/dedup"
	"github.com/poiesic/newswire/digest"
	"github.com/poiesic/newswire/ingestion"
	"github.com/poiesic/newswire/reembed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource map[string][]core.RawArticle

func (s staticSource) Name() string { return "static" }

func (s staticSource) Fetch(_ context.Context, entity string) ([]core.RawArticle, error) {
	return s[entity], nil
}

func newTestDatabase(t *testing.T, opts ...DatabaseOption) *Database {
	t.Helper()
	opts = append([]DatabaseOption{WithEmbedder(mock.NewMockEmbedder()), WithInMemory()}, opts...)
	db, err := NewDatabase("", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDatabase(t *testing.T) {
	t.Run("create new database", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		db, err := NewDatabase(tmpDir, WithEmbedder(mock.NewMockEmbedder()))
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		assert.NotNil(t, db.ArticleRepository())
		assert.NotNil(t, db.Index())
		assert.NotNil(t, db.logger)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		// Try to create a database at a file path instead of directory
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0644))

		db, err := NewDatabase(tmpFile, WithEmbedder(mock.NewMockEmbedder()))
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("nil logger falls back to default", func(t *testing.T) {
		db := newTestDatabase(t, WithLogger(nil))
		assert.NotNil(t, db.logger)
	})
}

func TestDatabase_Close(t *testing.T) {
	db, err := NewDatabase(t.TempDir(), WithEmbedder(mock.NewMockEmbedder()))
	require.NoError(t, err)

	_, err = db.NewStorageCoordinator()
	require.NoError(t, err)

	assert.NoError(t, db.Close())
}

func TestDatabase_FactoryMethods(t *testing.T) {
	db := newTestDatabase(t, WithGateOptions(dedup.WithThreshold(0.9)))

	t.Run("gate uses configured options", func(t *testing.T) {
		gate, err := db.NewGate()
		require.NoError(t, err)
		assert.Equal(t, 0.9, gate.Threshold())
	})

	t.Run("can create pipeline", func(t *testing.T) {
		pipeline, err := db.NewPipeline(staticSource{}, []string{"Acme"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Acme"}, pipeline.Entities())
	})

	t.Run("pipeline rejects empty entity list", func(t *testing.T) {
		_, err := db.NewPipeline(staticSource{}, nil)
		assert.ErrorIs(t, err, ingestion.ErrNoEntities)
	})

	t.Run("can create searcher", func(t *testing.T) {
		searcher, err := db.NewSearcher()
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("can create reembedder", func(t *testing.T) {
		reembedder, err := db.NewReembedder(nil, nil)
		require.NoError(t, err)
		assert.NotNil(t, reembedder)
	})
}

func TestDatabase_EndToEnd(t *testing.T) {
	db := newTestDatabase(t, WithStoreOptions(ingestion.WithStoreWorkers(2)))
	ctx := context.Background()

	published := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	src := staticSource{
		"Acme": {
			{
				Title:       "Acme appoints new CEO to lead AI strategy",
				URL:         "https://news.example.com/acme-ceo",
				Snippet:     "The board named a successor as the machine learning push grows",
				PublishedAt: published,
			},
			{
				Title: "Acme sponsors local fun run",
				URL:   "https://news.example.com/acme-fun-run",
			},
		},
	}

	pipeline, err := db.NewPipeline(src, []string{"Acme"}, ingestion.WithMetrics(false))
	require.NoError(t, err)

	runs, err := pipeline.Run(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Succeeded())
	assert.Equal(t, 1, runs[0].StoredCount)
	assert.Equal(t, 1, runs[0].Dropped, "low relevance story stays below the floor")

	builder, err := digest.NewBuilder()
	require.NoError(t, err)
	d := builder.Build(runs)
	require.Len(t, d.HighPriority, 1)
	assert.Equal(t, "Acme appoints new CEO to lead AI strategy", d.HighPriority[0].Title)

	searcher, err := db.NewSearcher()
	require.NoError(t, err)
	results, err := searcher.FindSimilar(ctx, "Acme", runs[0].Unique[0].SearchText(), 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, runs[0].Unique[0].ID, results[0].Article.ID)

	// The same story on the next run is recognised as already seen.
	runs, err = pipeline.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs[0].Unique)
	assert.Zero(t, runs[0].StoredCount)

	var progress bytes.Buffer
	reembedder, err := db.NewReembedder(&reembed.Config{BatchSize: 10, ReportInterval: 10, Retry: reembed.DefaultConfig().Retry}, &progress)
	require.NoError(t, err)
	processed, err := reembedder.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
}
