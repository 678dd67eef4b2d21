package digest

import (
	"log/slog"
	"slices"
	"time"

	"github.com/poiesic/newswire/core"
	"github.com/poiesic/newswire/scoring"
)

// DefaultHighPriorityCutoff is the priority at or above which an article is high priority.
const DefaultHighPriorityCutoff = 5.0

// Builder assembles digests from completed entity runs.
type Builder struct {
	ranker *scoring.Ranker
	cutoff float64
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder) error

// WithHighPriorityCutoff sets the high-priority threshold.
func WithHighPriorityCutoff(cutoff float64) Option {
	return func(b *Builder) error {
		b.cutoff = cutoff
		return nil
	}
}

// WithClock overrides the time source for GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) error {
		if now != nil {
			b.now = now
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...Option) (*Builder, error) {
	b := &Builder{
		ranker: scoring.NewRanker(),
		cutoff: DefaultHighPriorityCutoff,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	b.logger = b.logger.With("component", "digest")
	return b, nil
}

// Build creates a digest from runs. The runs are copied; the caller keeps ownership.
// A digest without articles is marked NoUpdates.
func (b *Builder) Build(runs []core.EntityRun) *core.Digest {
	d := &core.Digest{
		GeneratedAt: b.now().UTC(),
		Entities:    slices.Clone(runs),
	}

	for _, run := range runs {
		d.AllUnique = append(d.AllUnique, run.Unique...)
	}
	b.ranker.RankAll(d.AllUnique)

	for _, a := range d.AllUnique {
		if a.PriorityScore >= b.cutoff {
			d.HighPriority = append(d.HighPriority, a)
		} else {
			d.Other = append(d.Other, a)
		}
	}
	d.NoUpdates = len(d.AllUnique) == 0

	b.logger.Info("digest built",
		"entities", len(d.Entities),
		"articles", len(d.AllUnique),
		"high_priority", len(d.HighPriority),
		"failed_entities", len(d.FailedEntities()))
	return d
}
