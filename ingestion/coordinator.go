package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/newswire/core"
	"github.com/poiesic/newswire/index"
	"github.com/poiesic/newswire/retry"
)

// StoreResult is the outcome of storing one batch.
// StoredCount + FailedCount always equals len(Articles).
type StoreResult struct {
	Articles     []core.Article // Input order; ID set on every stored article
	StoredCount  int
	FailedCount  int
	FailedTitles []string
}

// SuccessRate returns StoredCount / len(Articles), or 1.0 for an empty batch.
func (r StoreResult) SuccessRate() float64 {
	total := r.StoredCount + r.FailedCount
	if total == 0 {
		return 1.0
	}
	return float64(r.StoredCount) / float64(total)
}

// StorageCoordinator persists unique articles into the semantic index.
// Each article is written on its own; a failed write never stops the batch.
type StorageCoordinator struct {
	index  index.SemanticIndex
	pool   *ants.Pool
	policy retry.Policy
	newID  func() string
	logger *slog.Logger
}

// StoreOption configures a StorageCoordinator.
type StoreOption func(*StorageCoordinator) error

// WithStoreWorkers sets how many upserts may run at once.
// Default is runtime.NumCPU(), with a minimum of 1.
func WithStoreWorkers(size int) StoreOption {
	return func(c *StorageCoordinator) error {
		if size < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidWorkers, size)
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if c.pool != nil {
			c.pool.Release()
		}
		c.pool = pool
		return nil
	}
}

// WithStoreRetryPolicy sets the retry policy for individual upserts.
// Default is retry.DefaultPolicy().
func WithStoreRetryPolicy(policy retry.Policy) StoreOption {
	return func(c *StorageCoordinator) error {
		if policy.MaxAttempts <= 0 {
			return retry.ErrInvalidMaxAttempts
		}
		c.policy = policy
		return nil
	}
}

// WithIDGenerator replaces the random UUID generator.
func WithIDGenerator(fn func() string) StoreOption {
	return func(c *StorageCoordinator) error {
		if fn != nil {
			c.newID = fn
		}
		return nil
	}
}

// WithStoreLogger sets a custom logger.
// Default is slog.Default().
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(c *StorageCoordinator) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewStorageCoordinator creates a coordinator writing to idx.
func NewStorageCoordinator(idx index.SemanticIndex, opts ...StoreOption) (*StorageCoordinator, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}

	c := &StorageCoordinator{
		index:  idx,
		policy: retry.DefaultPolicy(),
		newID:  uuid.NewString,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			c.Release()
			return nil, err
		}
	}

	if c.pool == nil {
		pool, err := ants.NewPool(max(runtime.NumCPU(), 1))
		if err != nil {
			return nil, err
		}
		c.pool = pool
	}
	c.logger = c.logger.With("component", "storage-coordinator")
	return c, nil
}

// Store upserts every article under entity with a freshly generated ID.
// Successful writes make the article visible to later deduplication queries
// for the same entity. After the index rejects the caller outright
// (see retry.IsFatal), articles not yet written fail with ErrStoreHalted
// without another request.
func (c *StorageCoordinator) Store(ctx context.Context, articles []core.Article, entity string) StoreResult {
	result := StoreResult{Articles: make([]core.Article, len(articles))}
	if len(articles) == 0 {
		return result
	}

	errs := make([]error, len(articles))
	var wg sync.WaitGroup
	var halted atomic.Bool

	for i, article := range articles {
		article.Entity = entity
		article.ID = ""
		result.Articles[i] = article

		id := c.newID()
		wg.Add(1)
		task := func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("%w: %v", ErrStagePanic, r)
				}
			}()
			if halted.Load() {
				errs[i] = ErrStoreHalted
				return
			}
			errs[i] = c.upsert(ctx, id, article)
			if errs[i] == nil {
				result.Articles[i].ID = id
				return
			}
			if retry.IsFatal(errs[i]) && halted.CompareAndSwap(false, true) {
				c.logger.Warn("index rejected credentials, skipping remaining writes", "entity", entity, "err", errs[i])
			}
		}
		if err := c.pool.Submit(task); err != nil {
			// Pool unavailable: write inline so the article is still attempted.
			c.logger.Warn("worker pool rejected upsert, storing inline", "err", err)
			task()
		}
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			result.FailedCount++
			result.FailedTitles = append(result.FailedTitles, articles[i].Title)
			c.logger.Warn("failed to store article", "entity", entity, "title", articles[i].Title, "err", err)
			continue
		}
		result.StoredCount++
	}

	c.logger.Debug("batch stored", "entity", entity, "stored", result.StoredCount, "failed", result.FailedCount)
	return result
}

func (c *StorageCoordinator) upsert(ctx context.Context, id string, article core.Article) error {
	return retry.Do(ctx, c.policy, func(ctx context.Context) error {
		return c.index.Upsert(ctx, id, article.SearchText(), article)
	})
}

// Release releases the worker pool.
// The coordinator should not be used after calling Release.
func (c *StorageCoordinator) Release() {
	if c.pool != nil {
		c.pool.Release()
	}
}
