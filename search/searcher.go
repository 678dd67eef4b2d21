package search

import (
	"context"
	"log/slog"
	"sort"

	"github.com/poiesic/newswire/core"
	"github.com/poiesic/newswire/index"
)

const (
	// DefaultMinSimilarity is the lowest similarity a neighbour needs to be returned.
	DefaultMinSimilarity = 0.60

	verbatimBoost = 0.3
)

// Result is a stored article matching a query.
type Result struct {
	Article    core.Article
	Similarity float32 // Cosine similarity reported by the index
	Score      float32 // Similarity plus any verbatim boost
}

// Searcher runs similarity queries over stored articles.
type Searcher struct {
	index         index.SemanticIndex
	minSimilarity float32
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMinSimilarity overrides DefaultMinSimilarity.
func WithMinSimilarity(min float32) Option {
	return func(s *Searcher) error {
		s.minSimilarity = min
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(idx index.SemanticIndex, opts ...Option) (*Searcher, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}

	s := &Searcher{
		index:         idx,
		minSimilarity: DefaultMinSimilarity,
		logger:        slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// FindSimilar searches entity's stored articles for matches to query.
// Returns up to maxHits results, ranked by score.
func (s *Searcher) FindSimilar(ctx context.Context, entity, query string, maxHits int) ([]*Result, error) {
	return s.FindSimilarWithMonitor(ctx, entity, query, maxHits, nil)
}

// FindSimilarWithMonitor is FindSimilar with stage callbacks.
func (s *Searcher) FindSimilarWithMonitor(ctx context.Context, entity, query string, maxHits int, monitor SearchMonitor) ([]*Result, error) {
	if entity == "" {
		return nil, ErrEntityRequired
	}
	if maxHits <= 0 {
		return []*Result{}, nil
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(entity, query)

	matches, err := s.index.Query(ctx, query, entity, maxHits)
	if err != nil {
		s.logger.Error("error querying for similar articles", "entity", entity, "err", err)
		return nil, err
	}
	monitor.AfterSemanticSearch(matches)

	results := make([]*Result, 0, len(matches))
	for _, match := range matches {
		if match.Score < s.minSimilarity || match.Article == nil {
			continue
		}

		score := match.Score
		if containsAllQueryWords(match.Article.SearchText(), query) {
			score += verbatimBoost
			monitor.VerbatimHit(match.Article)
		}

		results = append(results, &Result{
			Article:    *match.Article,
			Similarity: match.Score,
			Score:      score,
		})
	}

	// Sort by score descending
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > maxHits {
		results = results[:maxHits]
	}
	monitor.Finish(results)

	return results, nil
}
