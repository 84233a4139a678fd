package scoring

import "math"

// Engagement weights. Shares and comments rank above likes because they
// signal stronger engagement; views are the weakest signal.
const (
	likeWeight    = 10.0
	viewWeight    = 1.0
	commentWeight = 15.0
	shareWeight   = 20.0
)

// decayOffset and decayExponent shape the time decay: the +2 offset gives
// new content a grace period and keeps the denominator away from zero at
// age 0; the 1.5 exponent makes decay eventually dominate engagement.
const (
	decayOffset   = 2.0
	decayExponent = 1.5
)

// Counters are the engagement inputs of the trending formula.
type Counters struct {
	Likes    int64
	Views    int64
	Comments int64
	Shares   int64
}

// clamped floors every counter at zero. Negative counters only occur after
// an upstream bug; the formula must still return a finite, non-negative
// score rather than propagate the corruption.
func (c Counters) clamped() Counters {
	return Counters{
		Likes:    max64(c.Likes, 0),
		Views:    max64(c.Views, 0),
		Comments: max64(c.Comments, 0),
		Shares:   max64(c.Shares, 0),
	}
}

// Negative reports whether any counter is below zero.
func (c Counters) Negative() bool {
	return c.Likes < 0 || c.Views < 0 || c.Comments < 0 || c.Shares < 0
}

// Score computes the trending score:
//
//	(likes*10 + views*1 + comments*15 + shares*20) / (ageHours + 2)^1.5
//
// Pure and total: defined for every input, never NaN, never negative.
// A negative age (future-dated content) clamps to zero instead of erroring;
// the caller supplies "now" explicitly, this function never reads a clock.
func Score(c Counters, ageHours float64) float64 {
	if ageHours < 0 || math.IsNaN(ageHours) {
		ageHours = 0
	}
	c = c.clamped()

	numerator := float64(c.Likes)*likeWeight +
		float64(c.Views)*viewWeight +
		float64(c.Comments)*commentWeight +
		float64(c.Shares)*shareWeight

	return numerator / math.Pow(ageHours+decayOffset, decayExponent)
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
