package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreKnownScenario(t *testing.T) {
	// numerator = 10*10 + 100*1 + 5*15 + 2*20 = 315
	// denominator = (10+2)^1.5 ≈ 41.569
	c := Counters{Likes: 10, Views: 100, Comments: 5, Shares: 2}
	got := Score(c, 10)
	assert.InDelta(t, 315/math.Pow(12, 1.5), got, 1e-9)
	assert.InDelta(t, 7.578, got, 0.01)
}

func TestScoreZeroEngagementNewPost(t *testing.T) {
	got := Score(Counters{}, 0)
	assert.Zero(t, got)
	assert.False(t, math.IsNaN(got))
}

func TestScoreNonNegative(t *testing.T) {
	cases := []struct {
		c   Counters
		age float64
	}{
		{Counters{}, 0},
		{Counters{Views: 1}, 0},
		{Counters{Likes: 1, Views: 1, Comments: 1, Shares: 1}, 100000},
		{Counters{Likes: -3, Views: -1, Comments: -2, Shares: -9}, 5},
		{Counters{Views: 10}, -48},
	}
	for _, tc := range cases {
		got := Score(tc.c, tc.age)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.False(t, math.IsNaN(got))
		assert.False(t, math.IsInf(got, 0))
	}
}

func TestScoreDecaysWithAge(t *testing.T) {
	c := Counters{Likes: 50, Views: 500, Comments: 20, Shares: 10}
	prev := math.Inf(1)
	for _, age := range []float64{0, 1, 2, 6, 12, 24, 48, 168, 720} {
		got := Score(c, age)
		assert.LessOrEqual(t, got, prev, "score must not increase with age (age=%v)", age)
		prev = got
	}
}

func TestScoreWeightOrdering(t *testing.T) {
	base := Counters{Likes: 5, Views: 50, Comments: 3, Shares: 1}
	age := 10.0

	ref := Score(base, age)
	viewGain := Score(Counters{Likes: 5, Views: 51, Comments: 3, Shares: 1}, age) - ref
	likeGain := Score(Counters{Likes: 6, Views: 50, Comments: 3, Shares: 1}, age) - ref
	commentGain := Score(Counters{Likes: 5, Views: 50, Comments: 4, Shares: 1}, age) - ref
	shareGain := Score(Counters{Likes: 5, Views: 50, Comments: 3, Shares: 2}, age) - ref

	assert.Greater(t, shareGain, commentGain)
	assert.Greater(t, commentGain, likeGain)
	assert.Greater(t, likeGain, viewGain)
	assert.Greater(t, viewGain, 0.0)
}

func TestScoreNegativeAgeClamps(t *testing.T) {
	// Future-dated content is a data quality issue, not an error.
	c := Counters{Likes: 1, Views: 10}
	assert.Equal(t, Score(c, 0), Score(c, -5))
}

func TestScoreNegativeCountersClamp(t *testing.T) {
	got := Score(Counters{Likes: -10, Views: -100, Comments: -5, Shares: -2}, 3)
	assert.Zero(t, got)
}

func TestScoreDeterministic(t *testing.T) {
	c := Counters{Likes: 7, Views: 123, Comments: 2, Shares: 4}
	assert.Equal(t, Score(c, 36.5), Score(c, 36.5))
}
