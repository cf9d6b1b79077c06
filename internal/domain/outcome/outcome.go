// Package outcome derives comparison metadata from a judged match.
package outcome

import "math"

// defaultUpsetThreshold is the pre-vote rating gap beyond which a win by
// the lower-rated side counts as an upset.
const defaultUpsetThreshold = 200.0

// Option applies a configuration option to the Evaluator.
type Option func(*Evaluator)

// WithUpsetThreshold sets the rating gap that qualifies an upset.
// Non-positive values are ignored.
func WithUpsetThreshold(threshold float64) Option {
	return func(e *Evaluator) {
		if threshold > 0 {
			e.upsetThreshold = threshold
		}
	}
}

// Result carries the metadata attached to a Comparison record.
type Result struct {
	// RatingDifference is |ratingA - ratingB| before the rating update.
	RatingDifference float64
	// WasUpset is true when the winner's pre-vote rating was strictly
	// lower and the gap reached the threshold.
	WasUpset bool
}

// Evaluator computes the rating gap and upset flag for one outcome.
// Pure; evaluate before the ratings are updated.
type Evaluator struct {
	upsetThreshold float64
}

// NewEvaluator creates an Evaluator with configuration options.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{upsetThreshold: defaultUpsetThreshold}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Evaluate computes outcome metadata from the pre-update ratings.
func (e *Evaluator) Evaluate(ratingA, ratingB float64, winnerIsA bool) Result {
	diff := math.Abs(ratingA - ratingB)

	winner, loser := ratingA, ratingB
	if !winnerIsA {
		winner, loser = ratingB, ratingA
	}

	return Result{
		RatingDifference: diff,
		WasUpset:         diff >= e.upsetThreshold && winner < loser,
	}
}
