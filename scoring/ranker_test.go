package scoring

import (
	"slices"
	"testing"
	"time"

	"github.com/poiesic/newswire/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRank_Boosts(t *testing.T) {
	r := NewRanker()

	plain := core.Article{Title: "Quiet day", RelevanceScore: 3}
	assert.Equal(t, 3.0, r.Rank(plain))

	scenario := core.Article{
		Title:          "Acme Corp CEO resigns amid AI pivot",
		Snippet:        "Acme's chief executive departs as company doubles down on artificial intelligence",
		RelevanceScore: 11,
	}
	assert.Equal(t, 11+LeadershipBoost+AIBoost, r.Rank(scenario))

	stock := core.Article{Title: "Shares plunge 8%", RelevanceScore: 4}
	assert.Equal(t, 4+StockMoveBoost, r.Rank(stock))
}

func TestRank_DoesNotChangeRelevance(t *testing.T) {
	r := NewRanker()
	articles := []core.Article{{Title: "New AI model", RelevanceScore: 4}}
	r.RankAll(articles)

	assert.Equal(t, 4.0, articles[0].RelevanceScore)
	assert.Equal(t, 5.0, articles[0].PriorityScore)
}

func TestCompare_Ordering(t *testing.T) {
	day := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	articles := []core.Article{
		{Title: "c", URL: "https://x/c", PriorityScore: 3.0, PublishedAt: day},
		{Title: "b", URL: "https://x/b", PriorityScore: 7.5, PublishedAt: day},
		{Title: "a", URL: "https://x/a", PriorityScore: 7.5, PublishedAt: day.Add(time.Hour)},
		{Title: "d", URL: "https://x/d", PriorityScore: 1.0, PublishedAt: day},
	}

	slices.SortFunc(articles, Compare)

	titles := make([]string, len(articles))
	for i, a := range articles {
		titles[i] = a.Title
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, titles)

	for i := 1; i < len(articles); i++ {
		require.GreaterOrEqual(t, articles[i-1].PriorityScore, articles[i].PriorityScore)
	}
}

func TestCompare_TieBreaks(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	known := core.Article{Title: "z", PriorityScore: 5, PublishedAt: day}
	unknown := core.Article{Title: "a", PriorityScore: 5}
	assert.Negative(t, Compare(known, unknown), "unknown dates sort last")
	assert.Positive(t, Compare(unknown, known))

	alpha := core.Article{Title: "alpha", PriorityScore: 5, PublishedAt: day}
	beta := core.Article{Title: "beta", PriorityScore: 5, PublishedAt: day}
	assert.Negative(t, Compare(alpha, beta))

	sameTitle1 := core.Article{Title: "t", URL: "https://a", PriorityScore: 5}
	sameTitle2 := core.Article{Title: "t", URL: "https://b", PriorityScore: 5}
	assert.Negative(t, Compare(sameTitle1, sameTitle2))
	assert.Zero(t, Compare(sameTitle1, sameTitle1))
}
