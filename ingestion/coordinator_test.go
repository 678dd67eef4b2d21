package ingestion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/newswire/core"
	"github.com/poiesic/newswire/index"
	"github.com/poiesic/newswire/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingIndex records upserts and fails for selected titles.
type recordingIndex struct {
	mu        sync.Mutex
	upserts   map[string]core.Article
	attempts  map[string]int
	failTitle map[string]error
}

var _ index.SemanticIndex = (*recordingIndex)(nil)

func newRecordingIndex() *recordingIndex {
	return &recordingIndex{
		upserts:   make(map[string]core.Article),
		attempts:  make(map[string]int),
		failTitle: make(map[string]error),
	}
}

func (r *recordingIndex) Query(context.Context, string, string, int) ([]core.SimilarityMatch, error) {
	return nil, nil
}

func (r *recordingIndex) Upsert(_ context.Context, id, _ string, article core.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts[article.Title]++
	if err, ok := r.failTitle[article.Title]; ok {
		return err
	}
	r.upserts[id] = article
	return nil
}

func fastRetry() retry.Policy {
	return retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
}

func newTestCoordinator(t *testing.T, idx index.SemanticIndex, opts ...StoreOption) *StorageCoordinator {
	t.Helper()
	opts = append([]StoreOption{WithStoreRetryPolicy(fastRetry()), WithStoreWorkers(4)}, opts...)
	c, err := NewStorageCoordinator(idx, opts...)
	require.NoError(t, err)
	t.Cleanup(c.Release)
	return c
}

func batch(n int) []core.Article {
	articles := make([]core.Article, n)
	for i := range articles {
		articles[i] = core.Article{
			Title:          fmt.Sprintf("Story %d", i),
			URL:            fmt.Sprintf("https://news.example.com/%d", i),
			RelevanceScore: 5,
		}
	}
	return articles
}

func TestNewStorageCoordinator_RequiresIndex(t *testing.T) {
	_, err := NewStorageCoordinator(nil)
	assert.ErrorIs(t, err, ErrIndexRequired)

	_, err = NewStorageCoordinator(newRecordingIndex(), WithStoreWorkers(0))
	assert.ErrorIs(t, err, ErrInvalidWorkers)
}

func TestStore_AllSucceed(t *testing.T) {
	idx := newRecordingIndex()
	c := newTestCoordinator(t, idx)

	result := c.Store(context.Background(), batch(5), "Acme")

	assert.Equal(t, 5, result.StoredCount)
	assert.Zero(t, result.FailedCount)
	assert.Empty(t, result.FailedTitles)
	assert.Equal(t, 1.0, result.SuccessRate())

	ids := make(map[string]struct{})
	for i, a := range result.Articles {
		assert.Equal(t, fmt.Sprintf("Story %d", i), a.Title, "input order is kept")
		assert.Equal(t, "Acme", a.Entity)
		require.NotEmpty(t, a.ID)
		ids[a.ID] = struct{}{}
	}
	assert.Len(t, ids, 5, "every article gets a fresh id")
	assert.Len(t, idx.upserts, 5)
}

func TestStore_BatchResilience(t *testing.T) {
	idx := newRecordingIndex()
	idx.failTitle["Story 2"] = retry.Permanent(errors.New("disk full"))
	c := newTestCoordinator(t, idx)

	articles := batch(5)
	result := c.Store(context.Background(), articles, "Acme")

	assert.Equal(t, len(articles), result.StoredCount+result.FailedCount)
	assert.Equal(t, 4, result.StoredCount)
	assert.Equal(t, 1, result.FailedCount)
	assert.Equal(t, []string{"Story 2"}, result.FailedTitles)
	assert.InDelta(t, 0.8, result.SuccessRate(), 1e-9)
	assert.Empty(t, result.Articles[2].ID)

	for _, a := range articles {
		assert.Equal(t, 1, idx.attempts[a.Title], "every article is attempted, permanent errors once")
	}
}

func TestStore_TransientFailuresRetried(t *testing.T) {
	idx := newRecordingIndex()
	idx.failTitle["Story 0"] = errors.New("connection reset")
	c := newTestCoordinator(t, idx)

	result := c.Store(context.Background(), batch(1), "Acme")

	assert.Equal(t, 1, result.FailedCount)
	assert.Equal(t, 3, idx.attempts["Story 0"])
}

func TestStore_EmptyBatch(t *testing.T) {
	c := newTestCoordinator(t, newRecordingIndex())

	result := c.Store(context.Background(), nil, "Acme")
	assert.Zero(t, result.StoredCount)
	assert.Zero(t, result.FailedCount)
	assert.Equal(t, 1.0, result.SuccessRate())
}

func TestStore_CustomIDs(t *testing.T) {
	idx := newRecordingIndex()
	c := newTestCoordinator(t, idx, WithIDGenerator(func() string { return "fixed" }))

	result := c.Store(context.Background(), batch(1), "Acme")
	require.Equal(t, 1, result.StoredCount)
	assert.Equal(t, "fixed", result.Articles[0].ID)
}

type statusError int

func (e statusError) Error() string   { return fmt.Sprintf("status %d", int(e)) }
func (e statusError) StatusCode() int { return int(e) }

func TestStore_AuthFailureHaltsBatch(t *testing.T) {
	idx := newRecordingIndex()
	articles := batch(5)
	for _, a := range articles {
		idx.failTitle[a.Title] = fmt.Errorf("%w: embedding: %w", index.ErrWrite, statusError(http.StatusUnauthorized))
	}
	c := newTestCoordinator(t, idx, WithStoreWorkers(1))

	result := c.Store(context.Background(), articles, "Acme")

	assert.Zero(t, result.StoredCount)
	assert.Equal(t, 5, result.FailedCount)
	assert.Len(t, result.FailedTitles, 5)

	total := 0
	for _, n := range idx.attempts {
		total += n
	}
	assert.Equal(t, 1, total, "first rejection is neither retried nor repeated")
}
