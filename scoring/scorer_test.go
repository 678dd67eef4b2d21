package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScorer(t *testing.T, opts ...Option) *Scorer {
	t.Helper()
	s, err := NewScorer(opts...)
	require.NoError(t, err)
	return s
}

func TestScore_LeadershipAndAIScenario(t *testing.T) {
	s := newTestScorer(t)

	score := s.Score(
		"Acme Corp CEO resigns amid AI pivot",
		"Acme's chief executive departs as company doubles down on artificial intelligence",
	)

	assert.GreaterOrEqual(t, score, 11.0)
	assert.True(t, s.Accept(score))
	assert.GreaterOrEqual(t, score, 5.0)
}

func TestScore_Categories(t *testing.T) {
	s := newTestScorer(t)

	tests := []struct {
		name    string
		title   string
		snippet string
		want    float64
	}{
		{"nothing relevant", "Company holds picnic", "Employees enjoyed the weather", 0},
		{"ai is a whole word", "Spokesperson said nothing", "The chair was plain", 0},
		{"single ai keyword", "Acme bets on machine learning", "", AIWeight},
		{"leadership needs an action", "Acme CEO speaks at event", "", 0},
		{"leadership once", "CFO appointed and CTO named", "", LeadershipWeight},
		{"significant stock move", "Shares surge 12% in trading", "", StockMoveWeight},
		{"small stock move ignored", "Shares up 3% in trading", "", 0},
		{"percentage before verb", "Stock 7.5% higher at close", "", StockMoveWeight},
		{"stock move counted once", "Shares jump 9% then up 10%", "", StockMoveWeight},
		{"business", "Acme announces merger talks", "", BusinessWeight + ProductWeight},
		{"regulatory", "Regulators open investigation", "", 2 * RegulatoryWeight},
		{"earnings", "Quarterly revenue beats", "", 2 * EarningsWeight},
		{"title-only impact", "Historic day", "", HighImpactWeight},
		{"impact word in snippet ignored", "Quiet day", "a historic milestone", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.Score(tt.title, tt.snippet), 1e-9)
		})
	}
}

func TestScore_ClampedAndDeterministic(t *testing.T) {
	s := newTestScorer(t)

	title := "Historic record breakthrough: new CEO appointed, shares surge 40%"
	snippet := "AI, machine learning, deep learning, LLM and generative AI drive acquisition, merger, funding, lawsuit and revenue growth"

	first := s.Score(title, snippet)
	second := s.Score(title, snippet)

	assert.Equal(t, first, second)
	assert.Equal(t, 15.0, first)
}

func TestScore_Bounds(t *testing.T) {
	s := newTestScorer(t)

	inputs := [][2]string{
		{"", ""},
		{"AI AI AI", "ai ai"},
		{"CEO fired", "stock plunges 50%"},
		{"   ", "\n\t"},
	}
	for _, in := range inputs {
		score := s.Score(in[0], in[1])
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 15.0)
	}
}

func TestScorer_Floor(t *testing.T) {
	s := newTestScorer(t)
	assert.Equal(t, DefaultFloor, s.Floor())
	assert.True(t, s.Accept(3.0))
	assert.False(t, s.Accept(2.99))

	s = newTestScorer(t, WithFloor(6))
	assert.False(t, s.Accept(5.5))

	_, err := NewScorer(WithFloor(16))
	assert.ErrorIs(t, err, ErrInvalidFloor)
	_, err = NewScorer(WithFloor(-1))
	assert.ErrorIs(t, err, ErrInvalidFloor)
}

func TestKeywordPattern(t *testing.T) {
	tests := []struct {
		word string
		text string
		want bool
	}{
		{"resign*", "ceo resigned today", true},
		{"resign*", "ceo re-signed", false},
		{"stepped down", "she stepped  down", true},
		{"ai", "openai released", false},
		{"ai", "(ai) tools", true},
		{"co-founder", "co-founder left", true},
	}
	for _, tt := range tests {
		ks := newKeywordSet(tt.word)
		assert.Equal(t, tt.want, ks.any(tt.text), "%q in %q", tt.word, tt.text)
	}
}
