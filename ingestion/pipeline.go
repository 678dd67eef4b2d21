package ingestion

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/newswire/core"
	"github.com/poiesic/newswire/metrics"
	"github.com/poiesic/newswire/retry"
	"github.com/poiesic/newswire/scoring"
	"github.com/poiesic/newswire/source"
)

// DefaultMaxPerEntity caps the accepted articles per entity after scoring.
const DefaultMaxPerEntity = 10

// Deduplicator removes articles that repeat stored content.
type Deduplicator interface {
	FilterUnique(ctx context.Context, articles []core.Article, entity string) []core.Article
}

// Storer persists unique articles.
type Storer interface {
	Store(ctx context.Context, articles []core.Article, entity string) StoreResult
}

// Pipeline orchestrates collection, scoring, deduplication and storage for
// a fixed list of entities.
type Pipeline struct {
	source       source.Adapter
	dedup        Deduplicator
	storer       Storer
	entities     []string
	workers      int
	scorer       *scoring.Scorer
	maxPerEntity int
	timeout      time.Duration
	policy       retry.Policy
	metrics      bool
	logger       *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithWorkers sets how many entities are processed concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithWorkers(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidWorkers, n)
		}
		p.workers = n
		return nil
	}
}

// WithScorer sets the relevance scorer.
// Default is a scorer with the default floor.
func WithScorer(s *scoring.Scorer) Option {
	return func(p *Pipeline) error {
		if s != nil {
			p.scorer = s
		}
		return nil
	}
}

// WithMaxPerEntity caps how many scored articles per entity continue to
// deduplication. The most relevant are kept. Zero disables the cap.
func WithMaxPerEntity(n int) Option {
	return func(p *Pipeline) error {
		if n < 0 {
			return fmt.Errorf("max per entity must not be negative, got %d", n)
		}
		p.maxPerEntity = n
		return nil
	}
}

// WithEntityTimeout bounds the time spent on a single entity. Zero means no limit.
func WithEntityTimeout(d time.Duration) Option {
	return func(p *Pipeline) error {
		p.timeout = d
		return nil
	}
}

// WithRetryPolicy sets the retry policy for source fetches.
// Default is retry.DefaultPolicy().
func WithRetryPolicy(policy retry.Policy) Option {
	return func(p *Pipeline) error {
		if policy.MaxAttempts <= 0 {
			return retry.ErrInvalidMaxAttempts
		}
		p.policy = policy
		return nil
	}
}

// WithMetrics enables or disables Prometheus metrics. Default is enabled.
func WithMetrics(enabled bool) Option {
	return func(p *Pipeline) error {
		p.metrics = enabled
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a pipeline for entities. Entity names are trimmed and
// must be non-blank and unique; they are processed and reported in the given order.
func NewPipeline(src source.Adapter, dedup Deduplicator, storer Storer, entities []string, opts ...Option) (*Pipeline, error) {
	if src == nil {
		return nil, ErrSourceRequired
	}
	if dedup == nil {
		return nil, ErrDeduplicatorRequired
	}
	if storer == nil {
		return nil, ErrStorerRequired
	}

	names, err := normalizeEntities(entities)
	if err != nil {
		return nil, err
	}

	scorer, err := scoring.NewScorer()
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		source:       src,
		dedup:        dedup,
		storer:       storer,
		entities:     names,
		workers:      max(runtime.NumCPU()/2, 1),
		scorer:       scorer,
		maxPerEntity: DefaultMaxPerEntity,
		policy:       retry.DefaultPolicy(),
		metrics:      true,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "pipeline")
	return p, nil
}

func normalizeEntities(entities []string) ([]string, error) {
	if len(entities) == 0 {
		return nil, ErrNoEntities
	}
	names := make([]string, 0, len(entities))
	seen := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		name := strings.TrimSpace(e)
		if name == "" {
			return nil, fmt.Errorf("%w: blank name", ErrInvalidEntity)
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: %q listed twice", ErrInvalidEntity, name)
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names, nil
}

// Entities returns the configured entity names in processing order.
func (p *Pipeline) Entities() []string {
	return slices.Clone(p.entities)
}

type indexedRun struct {
	pos int
	run core.EntityRun
}

// Run processes every entity and returns one EntityRun per entity, in
// configuration order. Per-entity failures are reported on the runs; the
// returned error is non-nil only when the run could not start.
func (p *Pipeline) Run(ctx context.Context) ([]core.EntityRun, error) {
	pool, err := ants.NewPool(p.workers)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	start := time.Now()
	results := make(chan indexedRun, len(p.entities))

	for i, entity := range p.entities {
		task := func() {
			results <- indexedRun{pos: i, run: p.ProcessEntity(ctx, entity)}
		}
		if err := pool.Submit(task); err != nil {
			p.logger.Warn("worker pool rejected entity, processing inline", "entity", entity, "err", err)
			task()
		}
	}

	runs := make([]core.EntityRun, len(p.entities))
	for range p.entities {
		r := <-results
		runs[r.pos] = r.run
	}

	failed := 0
	for i := range runs {
		if runs[i].Failed() {
			failed++
		}
	}
	p.logger.Info("pipeline run complete", "entities", len(runs), "failed", failed, "duration", time.Since(start))
	return runs, nil
}

// ProcessEntity runs a single entity through every stage and returns its record.
// It never panics and never returns an error: failures end up in StageError.
func (p *Pipeline) ProcessEntity(ctx context.Context, entity string) (run core.EntityRun) {
	run = core.EntityRun{Entity: entity}
	defer func() {
		// Panics outside a stage (logging, metrics) still yield a record.
		if r := recover(); r != nil && run.StageError == nil {
			run.StageError = &core.StageError{Stage: run.Stage, Err: fmt.Errorf("%w: %v", ErrStagePanic, r)}
		}
	}()

	logger := p.logger.With("entity", entity)
	start := time.Now()

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	defer func() {
		run.Duration = time.Since(start)
		if p.metrics {
			metrics.RecordEntityRun(runStatus(&run))
		}
	}()

	var raws []core.RawArticle
	err := p.runStage(&run, core.StageCollecting, func() error {
		var err error
		raws, err = p.collect(ctx, entity)
		return err
	})
	if err != nil {
		logger.Error("collection failed", "err", err)
		return run
	}
	if p.metrics {
		metrics.RecordCollected(entity, len(raws))
	}

	err = p.runStage(&run, core.StageScoring, func() error {
		run.Collected, run.Dropped = p.score(entity, raws)
		return nil
	})
	if err != nil {
		logger.Error("scoring failed", "err", err)
		return run
	}

	err = p.runStage(&run, core.StageDeduplicating, func() error {
		run.Unique = p.dedup.FilterUnique(ctx, run.Collected, entity)
		return nil
	})
	if err != nil {
		logger.Error("deduplication failed", "err", err)
		run.Unique = nil
		return run
	}
	if p.metrics {
		metrics.RecordDropped(entity, metrics.ReasonDuplicate, len(run.Collected)-len(run.Unique))
	}

	err = p.runStage(&run, core.StageStoring, func() error {
		result := p.storer.Store(ctx, run.Unique, entity)
		if len(result.Articles) == len(run.Unique) {
			run.Unique = result.Articles
		}
		run.StoredCount = result.StoredCount
		run.FailedCount = result.FailedCount
		run.FailedTitles = result.FailedTitles
		return nil
	})
	if err != nil {
		// Nothing can be known about a batch whose storer blew up.
		run.StoredCount = 0
		run.FailedCount = len(run.Unique)
		run.FailedTitles = titles(run.Unique)
		logger.Error("storage failed", "err", err)
		return run
	}
	if p.metrics {
		metrics.RecordStored(entity, run.StoredCount, run.FailedCount)
	}

	run.Stage = core.StageDone
	logger.Info("entity processed",
		"collected", len(run.Collected),
		"unique", len(run.Unique),
		"stored", run.StoredCount,
		"failed", run.FailedCount,
		"dropped", run.Dropped)
	return run
}

func (p *Pipeline) collect(ctx context.Context, entity string) ([]core.RawArticle, error) {
	var raws []core.RawArticle
	err := retry.Do(ctx, p.policy, func(ctx context.Context) error {
		var err error
		raws, err = p.source.Fetch(ctx, entity)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", source.ErrSource, err)
	}
	return raws, nil
}

// score validates and scores raw candidates, drops those below the floor and
// keeps at most maxPerEntity of the rest, most relevant first.
func (p *Pipeline) score(entity string, raws []core.RawArticle) ([]core.Article, int) {
	var invalid, belowFloor int
	accepted := make([]core.Article, 0, len(raws))

	for i := range raws {
		if err := core.ValidateRawArticle(&raws[i]); err != nil {
			invalid++
			p.logger.Debug("skipping invalid article", "entity", entity, "err", err)
			continue
		}
		article := core.NewArticle(raws[i], entity)
		if !p.scorer.ScoreArticle(&article) {
			belowFloor++
			continue
		}
		accepted = append(accepted, article)
	}

	slices.SortStableFunc(accepted, func(a, b core.Article) int {
		return cmp.Compare(b.RelevanceScore, a.RelevanceScore)
	})

	overLimit := 0
	if p.maxPerEntity > 0 && len(accepted) > p.maxPerEntity {
		overLimit = len(accepted) - p.maxPerEntity
		accepted = accepted[:p.maxPerEntity]
	}

	if p.metrics {
		metrics.RecordDropped(entity, metrics.ReasonInvalid, invalid)
		metrics.RecordDropped(entity, metrics.ReasonBelowFloor, belowFloor)
		metrics.RecordDropped(entity, metrics.ReasonOverLimit, overLimit)
	}
	return accepted, invalid + belowFloor + overLimit
}

func runStatus(run *core.EntityRun) string {
	switch {
	case run.Failed():
		return "failed"
	case run.Empty():
		return "empty"
	default:
		return "succeeded"
	}
}

func titles(articles []core.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.Title
	}
	return out
}
