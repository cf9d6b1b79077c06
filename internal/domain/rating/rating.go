// Package rating implements the Elo update applied after each pairwise judgment.
package rating

import "math"

// Default Elo configuration constants.
const (
	defaultKHigh   = 32.0 // fast-learning K for unsettled ratings
	defaultKMedium = 24.0
	defaultKLow    = 16.0 // stable K for well-established ratings

	defaultHighConfidence   = 0.8
	defaultMediumConfidence = 0.33

	expectedScoreDivisor = 400.0
)

// Option applies a configuration option to the Updater.
type Option func(*Updater)

// WithKFactors sets the K-factor tiers. Values must be positive and
// ordered low <= medium <= high; invalid sets are ignored.
func WithKFactors(low, medium, high float64) Option {
	return func(u *Updater) {
		if low > 0 && medium >= low && high >= medium {
			u.kLow = low
			u.kMedium = medium
			u.kHigh = high
		}
	}
}

// WithConfidenceThresholds sets the confidence cutoffs selecting the K tier.
// Both must be in (0,1] with medium < high; invalid pairs are ignored.
func WithConfidenceThresholds(medium, high float64) Option {
	return func(u *Updater) {
		if medium > 0 && high > medium && high <= 1 {
			u.mediumConfidence = medium
			u.highConfidence = high
		}
	}
}

// Result holds the post-update ratings for both sides.
type Result struct {
	NewRatingA float64
	NewRatingB float64
}

// Updater computes new Elo ratings from a single pairwise outcome.
// Each side moves by its own K-factor, chosen from that side's rating
// confidence: an established item's rating moves less than a newcomer's
// even within the same match. Pure; the caller persists the result.
type Updater struct {
	kLow    float64
	kMedium float64
	kHigh   float64

	mediumConfidence float64
	highConfidence   float64
}

// NewUpdater creates an Updater with configuration options.
func NewUpdater(opts ...Option) *Updater {
	u := &Updater{
		kLow:             defaultKLow,
		kMedium:          defaultKMedium,
		kHigh:            defaultKHigh,
		mediumConfidence: defaultMediumConfidence,
		highConfidence:   defaultHighConfidence,
	}

	for _, opt := range opts {
		opt(u)
	}

	return u
}

// Update returns the new ratings after a judged match. aWon selects the
// winner; confidenceA and confidenceB pick each side's K-factor.
// Ratings are not clamped: lopsided histories may push them outside
// typical bounds and that is accepted behavior.
func (u *Updater) Update(ratingA, ratingB float64, aWon bool, confidenceA, confidenceB float64) Result {
	expectedA := ExpectedScore(ratingA, ratingB)
	expectedB := 1 - expectedA

	scoreA, scoreB := 0.0, 1.0
	if aWon {
		scoreA, scoreB = 1.0, 0.0
	}

	return Result{
		NewRatingA: ratingA + u.kFor(confidenceA)*(scoreA-expectedA),
		NewRatingB: ratingB + u.kFor(confidenceB)*(scoreB-expectedB),
	}
}

// kFor maps a confidence value to the K-factor tier for that side.
func (u *Updater) kFor(confidence float64) float64 {
	switch {
	case confidence >= u.highConfidence:
		return u.kLow
	case confidence >= u.mediumConfidence:
		return u.kMedium
	default:
		return u.kHigh
	}
}

// ExpectedScore computes the standard Elo expectation for side A.
func ExpectedScore(ratingA, ratingB float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (ratingB-ratingA)/expectedScoreDivisor))
}
