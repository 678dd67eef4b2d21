package dedup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/newswire/core"
	"github.com/poiesic/newswire/index"
	"github.com/poiesic/newswire/retry"
)

const (
	// DefaultThreshold is the similarity at or above which two articles are the same story.
	DefaultThreshold = 0.85
	// DefaultTopK is the number of neighbours inspected per candidate.
	DefaultTopK = 10
)

// Gate decides whether candidate articles duplicate previously stored content.
// A Gate holds no per-run state and is safe for concurrent use.
type Gate struct {
	index     index.SemanticIndex
	threshold float32
	topK      int
	policy    retry.Policy
	logger    *slog.Logger
}

// Option configures a Gate.
type Option func(*Gate) error

// WithThreshold sets the duplicate threshold.
func WithThreshold(threshold float64) Option {
	return func(g *Gate) error {
		if threshold <= 0 || threshold > 1 {
			return fmt.Errorf("%w: %.3f", ErrInvalidThreshold, threshold)
		}
		g.threshold = float32(threshold)
		return nil
	}
}

// WithTopK sets how many neighbours are requested per query.
func WithTopK(topK int) Option {
	return func(g *Gate) error {
		if topK <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidTopK, topK)
		}
		g.topK = topK
		return nil
	}
}

// WithRetryPolicy sets the retry policy for index queries.
// Default is retry.DefaultPolicy().
func WithRetryPolicy(policy retry.Policy) Option {
	return func(g *Gate) error {
		if policy.MaxAttempts <= 0 {
			return retry.ErrInvalidMaxAttempts
		}
		g.policy = policy
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) error {
		if logger == nil {
			logger = slog.Default()
		}
		g.logger = logger
		return nil
	}
}

// NewGate creates a Gate over idx.
func NewGate(idx index.SemanticIndex, opts ...Option) (*Gate, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}

	g := &Gate{
		index:     idx,
		threshold: DefaultThreshold,
		topK:      DefaultTopK,
		policy:    retry.DefaultPolicy(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	g.logger = g.logger.With("component", "dedup")
	return g, nil
}

// Threshold returns the duplicate threshold.
func (g *Gate) Threshold() float64 {
	return float64(g.threshold)
}

// IsDuplicate reports whether article repeats a story already stored for entity.
// Index failures are logged and reported as not duplicate.
func (g *Gate) IsDuplicate(ctx context.Context, article core.Article, entity string) bool {
	dup, _ := g.check(ctx, article, entity)
	return dup
}

// check queries the index for article. A non-nil error means the query failed
// and the article was kept.
func (g *Gate) check(ctx context.Context, article core.Article, entity string) (bool, error) {
	var matches []core.SimilarityMatch
	err := retry.Do(ctx, g.policy, func(ctx context.Context) error {
		var err error
		matches, err = g.index.Query(ctx, article.SearchText(), entity, g.topK)
		return err
	})
	if err != nil {
		g.logger.Warn("index query failed, keeping article", "entity", entity, "title", article.Title, "err", err)
		return false, err
	}

	for _, m := range matches {
		if m.Score >= g.threshold {
			g.logger.Debug("duplicate found", "entity", entity, "title", article.Title, "match", m.ArticleID, "score", m.Score)
			return true, nil
		}
	}
	return false, nil
}

// FilterUnique returns the articles that are neither duplicates of stored
// content nor repeats of an earlier article in the same batch, in input order.
// An empty batch returns an empty slice without querying the index.
// Once the index rejects the caller outright (see retry.IsFatal), the rest of
// the batch is kept without further queries.
func (g *Gate) FilterUnique(ctx context.Context, articles []core.Article, entity string) []core.Article {
	unique := make([]core.Article, 0, len(articles))
	if len(articles) == 0 {
		return unique
	}

	seenURLs := make(map[string]struct{}, len(articles))
	seenTitles := make(map[core.ID]struct{}, len(articles))
	halted := false

	for i, article := range articles {
		url := core.NormalizeURL(article.URL)
		title := core.ContentID(article.Title)

		_, urlSeen := seenURLs[url]
		_, titleSeen := seenTitles[title]
		if urlSeen || titleSeen {
			g.logger.Debug("duplicate within batch", "entity", entity, "title", article.Title)
			continue
		}

		if !halted {
			dup, err := g.check(ctx, article, entity)
			if dup {
				continue
			}
			if retry.IsFatal(err) {
				halted = true
				g.logger.Warn("index rejected credentials, skipping remaining queries",
					"entity", entity, "skipped", len(articles)-i-1)
			}
		}

		seenURLs[url] = struct{}{}
		seenTitles[title] = struct{}{}
		unique = append(unique, article)
	}

	g.logger.Debug("dedup complete", "entity", entity, "candidates", len(articles), "unique", len(unique))
	return unique
}
