package scoring

import (
	"fmt"
	"strings"

	"github.com/poiesic/newswire/core"
)

// Category weights.
const (
	LeadershipWeight = 5.0
	StockMoveWeight  = 4.0
	AIWeight         = 3.0
	BusinessWeight   = 2.0
	RegulatoryWeight = 2.5
	EarningsWeight   = 1.5
	ProductWeight    = 1.5
	HighImpactWeight = 1.0
)

// DefaultFloor is the minimum relevance score an article needs to proceed past scoring.
const DefaultFloor = 3.0

// Scorer computes relevance scores and applies the acceptance floor.
// A Scorer is immutable after construction and safe for concurrent use.
type Scorer struct {
	floor float64
}

// Option configures a Scorer.
type Option func(*Scorer) error

// WithFloor sets the acceptance floor.
func WithFloor(floor float64) Option {
	return func(s *Scorer) error {
		if floor < 0 || floor > core.MaxRelevanceScore {
			return fmt.Errorf("%w: %.2f", ErrInvalidFloor, floor)
		}
		s.floor = floor
		return nil
	}
}

// NewScorer creates a Scorer with the default floor unless overridden.
func NewScorer(opts ...Option) (*Scorer, error) {
	s := &Scorer{floor: DefaultFloor}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Floor returns the acceptance floor.
func (s *Scorer) Floor() float64 {
	return s.floor
}

// Accept reports whether score clears the acceptance floor.
func (s *Scorer) Accept(score float64) bool {
	return score >= s.floor
}

// Score returns the relevance of an article in [0, 15].
//
// Title and snippet are lower-cased and joined. Leadership changes and
// significant stock moves count once each; every distinct keyword of the
// other categories counts separately. High-impact words are only looked
// for in the title.
func (s *Scorer) Score(title, snippet string) float64 {
	title = strings.ToLower(title)
	content := title + " " + strings.ToLower(snippet)

	score := 0.0
	if hasLeadershipChange(content) {
		score += LeadershipWeight
	}
	if hasSignificantMove(content) {
		score += StockMoveWeight
	}
	score += AIWeight * float64(aiKeywords.count(content))
	score += BusinessWeight * float64(businessKeywords.count(content))
	score += RegulatoryWeight * float64(regulatoryKeywords.count(content))
	score += EarningsWeight * float64(earningsKeywords.count(content))
	score += ProductWeight * float64(productKeywords.count(content))
	score += HighImpactWeight * float64(highImpactTitleWords.count(title))

	return min(score, core.MaxRelevanceScore)
}

// ScoreArticle sets article.RelevanceScore and reports whether it clears the floor.
func (s *Scorer) ScoreArticle(article *core.Article) bool {
	article.RelevanceScore = s.Score(article.Title, article.Snippet)
	return s.Accept(article.RelevanceScore)
}
