package digest

import (
	"errors"
	"testing"
	"time"

	"github.com/poiesic/newswire/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	b, err := NewBuilder(WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return b
}

// plain returns an article whose priority equals its relevance: no boosts apply.
func plain(title string, relevance float64, published time.Time) core.Article {
	return core.Article{
		Title:          title,
		URL:            "https://news.example.com/" + title,
		RelevanceScore: relevance,
		PublishedAt:    published,
	}
}

func TestBuild_Ordering(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	runs := []core.EntityRun{
		{Entity: "Acme", Stage: core.StageDone, Unique: []core.Article{
			plain("low", 3.0, day),
			plain("tie-older", 7.5, day),
		}},
		{Entity: "Globex", Stage: core.StageDone, Unique: []core.Article{
			plain("tie-newer", 7.5, day.Add(2*time.Hour)),
			plain("lowest", 1.0, day),
		}},
	}

	d := newTestBuilder(t).Build(runs)

	require.Len(t, d.AllUnique, 4)
	titles := []string{}
	for i, a := range d.AllUnique {
		titles = append(titles, a.Title)
		if i > 0 {
			assert.GreaterOrEqual(t, d.AllUnique[i-1].PriorityScore, a.PriorityScore)
		}
	}
	assert.Equal(t, []string{"tie-newer", "tie-older", "low", "lowest"}, titles)
	assert.False(t, d.NoUpdates)
	assert.Equal(t, fixedNow, d.GeneratedAt)
}

func TestBuild_TitleBreaksFullTie(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	runs := []core.EntityRun{{Entity: "Acme", Unique: []core.Article{
		plain("beta", 4, day),
		plain("alpha", 4, day),
	}}}

	d := newTestBuilder(t).Build(runs)
	assert.Equal(t, "alpha", d.AllUnique[0].Title)
	assert.Equal(t, "beta", d.AllUnique[1].Title)
}

func TestBuild_HighPriorityPartition(t *testing.T) {
	runs := []core.EntityRun{{Entity: "Acme", Unique: []core.Article{
		plain("edge", 5.0, time.Time{}),
		plain("below", 4.9, time.Time{}),
		{Title: "Acme CEO resigns", URL: "https://x/ceo", RelevanceScore: 4},
	}}}

	d := newTestBuilder(t).Build(runs)

	high := []string{}
	for _, a := range d.HighPriority {
		high = append(high, a.Title)
	}
	assert.ElementsMatch(t, []string{"edge", "Acme CEO resigns"}, high)
	require.Len(t, d.Other, 1)
	assert.Equal(t, "below", d.Other[0].Title)

	for _, a := range d.AllUnique {
		if a.Title == "Acme CEO resigns" {
			assert.Equal(t, 4.0, a.RelevanceScore, "relevance is not recomputed")
			assert.Equal(t, 6.0, a.PriorityScore)
		}
	}
}

func TestBuild_NoUpdates(t *testing.T) {
	b := newTestBuilder(t)

	d := b.Build(nil)
	require.NotNil(t, d)
	assert.True(t, d.NoUpdates)
	assert.Empty(t, d.AllUnique)

	runs := []core.EntityRun{
		{Entity: "Acme", Stage: core.StageDone},
		{Entity: "Globex", Stage: core.StageCollecting, StageError: &core.StageError{
			Stage: core.StageCollecting, Err: errors.New("timeout"),
		}},
	}
	d = b.Build(runs)
	assert.True(t, d.NoUpdates)
	assert.Len(t, d.Entities, 2)
	require.Len(t, d.FailedEntities(), 1)
	assert.Equal(t, "Globex", d.FailedEntities()[0].Entity)
}

func TestBuild_DoesNotMutateRuns(t *testing.T) {
	runs := []core.EntityRun{{Entity: "Acme", Unique: []core.Article{
		plain("b", 3, time.Time{}),
		plain("a", 9, time.Time{}),
	}}}

	newTestBuilder(t).Build(runs)

	assert.Equal(t, "b", runs[0].Unique[0].Title)
	assert.Zero(t, runs[0].Unique[0].PriorityScore)
}
