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


package newswire

import (
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/poiesic/newswire/ai"
	"github.com/poiesic/newswire/ai/openai"
	"github.com/poiesic/newswire/dedup"
	"github.com/poiesic/newswire/index"
	"github.com/poiesic/newswire/ingestion"
	"github.com/poiesic/newswire/reembed"
	"github.com/poiesic/newswire/search"
	"github.com/poiesic/newswire/source"
	"github.com/poiesic/newswire/storage"
	"github.com/poiesic/newswire/storage/badger"
)

// Database owns the article store and the semantic index built on it.
type Database struct {
	backend   *badger.Backend
	repo      storage.ArticleRepository
	embedder  ai.Embedder
	index     *index.VectorIndex
	gateOpts  []dedup.Option
	storeOpts []ingestion.StoreOption
	logger    *slog.Logger

	mu           sync.Mutex
	coordinators []*ingestion.StorageCoordinator
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig  *ai.Config
	embedder  ai.Embedder
	inMemory  bool
	gateOpts  []dedup.Option
	storeOpts []ingestion.StoreOption
	logger    *slog.Logger
}

// WithAIConfig selects the embedding service.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithEmbedder uses embedder instead of building one from the AI config.
func WithEmbedder(embedder ai.Embedder) DatabaseOption {
	return func(o *databaseOptions) {
		o.embedder = embedder
	}
}

// WithInMemory keeps the database in memory; the path is ignored.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithGateOptions configures the deduplication gate of every pipeline.
func WithGateOptions(opts ...dedup.Option) DatabaseOption {
	return func(o *databaseOptions) {
		o.gateOpts = append(o.gateOpts, opts...)
	}
}

// WithStoreOptions configures the storage coordinator of every pipeline.
func WithStoreOptions(opts ...ingestion.StoreOption) DatabaseOption {
	return func(o *databaseOptions) {
		o.storeOpts = append(o.storeOpts, opts...)
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

// NewDatabase opens the article database at filePath.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	embedder := options.embedder
	if embedder == nil {
		var err error
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			return nil, err
		}
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}
	repo := badger.NewArticleRepository(backend)

	idx, err := index.NewVectorIndex(embedder, repo, index.WithLogger(options.logger))
	if err != nil {
		repo.Close()
		backend.Close()
		return nil, err
	}

	return &Database{
		backend:   backend,
		repo:      repo,
		embedder:  embedder,
		index:     idx,
		gateOpts:  options.gateOpts,
		storeOpts: options.storeOpts,
		logger:    options.logger,
	}, nil
}

// Close releases pipeline worker pools and closes the store.
func (db *Database) Close() error {
	db.mu.Lock()
	for _, c := range db.coordinators {
		c.Release()
	}
	db.coordinators = nil
	db.mu.Unlock()

	var errs []error
	if err := db.repo.Close(); err != nil {
		db.logger.Error("error closing article repository", "err", err)
		errs = append(errs, err)
	}
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (db *Database) ArticleRepository() storage.ArticleRepository {
	return db.repo
}

func (db *Database) Index() index.SemanticIndex {
	return db.index
}

// NewGate creates a deduplication gate over the database's index.
func (db *Database) NewGate() (*dedup.Gate, error) {
	return dedup.NewGate(db.index, append([]dedup.Option{dedup.WithLogger(db.logger)}, db.gateOpts...)...)
}

// NewStorageCoordinator creates a storage coordinator over the database's index.
// Its worker pool is released by Close.
func (db *Database) NewStorageCoordinator() (*ingestion.StorageCoordinator, error) {
	coordinator, err := ingestion.NewStorageCoordinator(db.index,
		append([]ingestion.StoreOption{ingestion.WithStoreLogger(db.logger)}, db.storeOpts...)...)
	if err != nil {
		return nil, err
	}

	db.mu.Lock()
	db.coordinators = append(db.coordinators, coordinator)
	db.mu.Unlock()
	return coordinator, nil
}

// NewPipeline wires src to a fresh gate and storage coordinator for entities.
func (db *Database) NewPipeline(src source.Adapter, entities []string, opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	gate, err := db.NewGate()
	if err != nil {
		return nil, err
	}
	coordinator, err := db.NewStorageCoordinator()
	if err != nil {
		return nil, err
	}
	return ingestion.NewPipeline(src, gate, coordinator, entities,
		append([]ingestion.Option{ingestion.WithLogger(db.logger)}, opts...)...)
}

func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.index, append([]search.Option{search.WithLogger(db.logger)}, opts...)...)
}

// NewReembedder creates a reembedder writing progress to progress.
func (db *Database) NewReembedder(config *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	return reembed.NewReembedder(db.repo, db.embedder, config, progress)
}
