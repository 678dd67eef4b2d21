package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/newswire/core"
	"github.com/poiesic/newswire/storage"
)

// ArticleRepository implements storage.ArticleRepository for BadgerDB.
type ArticleRepository struct {
	backend *Backend
}

var _ storage.ArticleRepository = (*ArticleRepository)(nil)

// NewArticleRepository creates a new ArticleRepository.
func NewArticleRepository(backend *Backend) *ArticleRepository {
	return &ArticleRepository{
		backend: backend,
	}
}

// Close is a no-op; the backend owns the database handle.
func (r *ArticleRepository) Close() error {
	return nil
}

// FindSimilar delegates to the backend.
func (r *ArticleRepository) FindSimilar(ctx context.Context, scope string, vector []float32, minSimilarity float32, limit int) ([]*core.SimilarityMatch, error) {
	return r.backend.FindSimilar(ctx, scope, vector, minSimilarity, limit)
}

// UpsertArticles writes one or more articles, replacing any existing article with the same key.
func (r *ArticleRepository) UpsertArticles(ctx context.Context, articles ...*core.StoredArticle) ([]*core.StoredArticle, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	for _, article := range articles {
		if article == nil || article.ID == "" || article.Entity == "" {
			return nil, fmt.Errorf("%w: article requires an ID and an entity", storage.ErrInvalidQuery)
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, article := range articles {
			if article.StoredAt.IsZero() {
				article.StoredAt = time.Now().UTC()
			}

			key := makeArticleKey(article.Entity, article.ID)
			if err := tx.Set(key, storage.MarshalStoredArticle(article)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	return articles, nil
}

// GetArticle retrieves a single article by scope and ID.
func (r *ArticleRepository) GetArticle(ctx context.Context, scope, id string) (*core.StoredArticle, error) {
	var result *core.StoredArticle
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readArticle(tx, makeArticleKey(scope, id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetArticles retrieves every article stored under scope, in key order.
func (r *ArticleRepository) GetArticles(ctx context.Context, scope string) ([]*core.StoredArticle, error) {
	var results []*core.StoredArticle
	err := r.scan(ctx, makeScopePrefix(scope), func(article *core.StoredArticle) error {
		if article.Entity == scope {
			results = append(results, article)
		}
		return nil
	})
	return results, err
}

// ForEachArticle calls fn for every stored article across all scopes.
func (r *ArticleRepository) ForEachArticle(ctx context.Context, fn func(*core.StoredArticle) error) error {
	return r.scan(ctx, makeArticlesPrefix(), fn)
}

// CountArticles returns the number of stored articles across all scopes.
func (r *ArticleRepository) CountArticles(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeArticlesPrefix()
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// DeleteArticles removes articles from scope by ID.
func (r *ArticleRepository) DeleteArticles(ctx context.Context, scope string, ids ...string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeArticleKey(scope, id)
			if _, err := tx.Get(key); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return storage.ErrNotFound
				}
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// scan decodes every article under prefix and hands it to fn.
// Decoding happens in one read transaction; fn runs after the transaction closes
// so callers may write back to the repository.
func (r *ArticleRepository) scan(ctx context.Context, prefix []byte, fn func(*core.StoredArticle) error) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	var articles []*core.StoredArticle
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var article *core.StoredArticle
			err := iter.Item().Value(func(val []byte) error {
				var err error
				article, err = storage.UnmarshalStoredArticle(val)
				return err
			})
			if err != nil {
				return err
			}
			articles = append(articles, article)
		}
		return nil
	}, false)
	if err != nil {
		return err
	}

	for _, article := range articles {
		if err := fn(article); err != nil {
			return err
		}
	}
	return nil
}

// readArticle reads and decodes the article at key.
// Returns nil, nil if the key does not exist.
func (r *ArticleRepository) readArticle(tx *badger.Txn, key []byte) (*core.StoredArticle, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var article *core.StoredArticle
	err = item.Value(func(val []byte) error {
		var err error
		article, err = storage.UnmarshalStoredArticle(val)
		return err
	})
	return article, err
}
