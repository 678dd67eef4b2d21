package scoring

import (
	"cmp"
	"slices"
	"strings"

	"github.com/poiesic/newswire/core"
)

// Priority boosts added on top of the relevance score.
const (
	LeadershipBoost = 2.0
	StockMoveBoost  = 1.5
	AIBoost         = 1.0
)

// Ranker computes digest priority. It never influences acceptance.
type Ranker struct{}

// NewRanker returns a Ranker.
func NewRanker() *Ranker {
	return &Ranker{}
}

// Rank returns the priority score of article: its relevance score plus boosts
// for leadership changes, significant stock moves and AI topics.
func (r *Ranker) Rank(article core.Article) float64 {
	content := strings.ToLower(article.Title + " " + article.Snippet)

	priority := article.RelevanceScore
	if hasLeadershipChange(content) {
		priority += LeadershipBoost
	}
	if hasSignificantMove(content) {
		priority += StockMoveBoost
	}
	if aiKeywords.any(content) {
		priority += AIBoost
	}
	return priority
}

// RankAll sets PriorityScore on every article and sorts them with Compare.
func (r *Ranker) RankAll(articles []core.Article) {
	for i := range articles {
		articles[i].PriorityScore = r.Rank(articles[i])
	}
	slices.SortStableFunc(articles, Compare)
}

// Compare orders articles for the digest: priority descending, then
// publication time descending with unknown dates last, then title and URL
// ascending. The order is total for articles with distinct URLs.
func Compare(a, b core.Article) int {
	if c := cmp.Compare(b.PriorityScore, a.PriorityScore); c != 0 {
		return c
	}

	switch {
	case a.HasPublishedAt() && !b.HasPublishedAt():
		return -1
	case !a.HasPublishedAt() && b.HasPublishedAt():
		return 1
	case a.HasPublishedAt() && b.HasPublishedAt():
		if c := b.PublishedAt.Compare(a.PublishedAt); c != 0 {
			return c
		}
	}

	if c := cmp.Compare(a.Title, b.Title); c != 0 {
		return c
	}
	return cmp.Compare(a.URL, b.URL)
}
