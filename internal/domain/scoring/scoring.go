// Package scoring computes the derived confidence and familiarity scores
// for an item from its vote-history counters.
package scoring

import (
	"math"
	"time"

	"github.com/okian/duelo/internal/domain/model"
)

// Default scoring configuration constants.
const (
	defaultMinComparisonsForConfidence = 30
	defaultExposureSaturation          = 50
	defaultRecencyWindow               = 30 * 24 * time.Hour

	defaultExposureWeight   = 0.40
	defaultWinRateWeight    = 0.25
	defaultRecencyWeight    = 0.20
	defaultEngagementWeight = 0.15

	maxFamiliarity = 100.0
)

// Weights holds the familiarity factor weights. A valid set sums to 1.0.
type Weights struct {
	Exposure   float64
	WinRate    float64
	Recency    float64
	Engagement float64
}

// Sum returns the total of the four weights.
func (w Weights) Sum() float64 {
	return w.Exposure + w.WinRate + w.Recency + w.Engagement
}

// DefaultWeights returns the default familiarity weight set.
func DefaultWeights() Weights {
	return Weights{
		Exposure:   defaultExposureWeight,
		WinRate:    defaultWinRateWeight,
		Recency:    defaultRecencyWeight,
		Engagement: defaultEngagementWeight,
	}
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithMinComparisonsForConfidence sets the vote count at which confidence
// saturates to 1.0. Non-positive values are ignored.
func WithMinComparisonsForConfidence(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.minComparisons = n
		}
	}
}

// WithExposureSaturation sets the vote count at which the exposure factor
// saturates. Non-positive values are ignored.
func WithExposureSaturation(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.exposureSaturation = n
		}
	}
}

// WithRecencyWindow sets the window over which the recency factor decays
// from 1.0 to 0.0. Non-positive durations are ignored.
func WithRecencyWindow(window time.Duration) Option {
	return func(s *Scorer) {
		if window > 0 {
			s.recencyWindow = window
		}
	}
}

// WithWeights sets the familiarity factor weights. Sets with negative
// components or not summing to 1.0 are ignored; configuration loading is
// expected to reject those before a Scorer is built.
func WithWeights(w Weights) Option {
	return func(s *Scorer) {
		if w.Exposure < 0 || w.WinRate < 0 || w.Recency < 0 || w.Engagement < 0 {
			return
		}
		if math.Abs(w.Sum()-1.0) > 1e-9 {
			return
		}
		s.weights = w
	}
}

// Scores holds the derived values for one item.
type Scores struct {
	Confidence  float64 // [0,1], saturating in comparison count
	Familiarity float64 // [0,100], multi-factor
}

// Scorer derives confidence and familiarity from item counters. Pure
// function of the counters plus the supplied clock reading; scores must be
// recomputed from scratch whenever any input counter changes.
type Scorer struct {
	minComparisons     int
	exposureSaturation int
	recencyWindow      time.Duration
	weights            Weights
}

// NewScorer creates a Scorer with configuration options.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		minComparisons:     defaultMinComparisonsForConfidence,
		exposureSaturation: defaultExposureSaturation,
		recencyWindow:      defaultRecencyWindow,
		weights:            DefaultWeights(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Score computes both derived values for an item at the given instant.
func (s *Scorer) Score(item model.Item, now time.Time) Scores {
	return Scores{
		Confidence:  s.Confidence(item.ComparisonCount),
		Familiarity: s.Familiarity(item, now),
	}
}

// Confidence is min(1, comparisonCount/minComparisons). Recency plays no
// part: an old rating built on many votes is still considered settled.
func (s *Scorer) Confidence(comparisonCount int) float64 {
	if comparisonCount <= 0 {
		return 0
	}
	return math.Min(1, float64(comparisonCount)/float64(s.minComparisons))
}

// Familiarity combines exposure, win rate, recency and engagement into a
// [0,100] score.
func (s *Scorer) Familiarity(item model.Item, now time.Time) float64 {
	exposure := math.Min(1, float64(item.ComparisonCount)/float64(s.exposureSaturation))

	winRate := 0.0
	if item.ComparisonCount > 0 {
		winRate = float64(item.Wins) / float64(item.ComparisonCount)
	}

	recency := s.recencyFactor(item.LastComparedAt, now)

	engagement := 0.0
	if total := item.ComparisonCount + item.SkipCount; total > 0 {
		engagement = 1 - float64(item.SkipCount)/float64(total)
	}

	score := maxFamiliarity * (s.weights.Exposure*exposure +
		s.weights.WinRate*winRate +
		s.weights.Recency*recency +
		s.weights.Engagement*engagement)

	return math.Max(0, math.Min(maxFamiliarity, score))
}

// recencyFactor decays linearly from 1.0 to 0.0 over the configured window
// since the last comparison. Never-compared items score 0.
func (s *Scorer) recencyFactor(lastComparedAt, now time.Time) float64 {
	if lastComparedAt.IsZero() {
		return 0
	}
	elapsed := now.Sub(lastComparedAt)
	if elapsed <= 0 {
		return 1
	}
	if elapsed >= s.recencyWindow {
		return 0
	}
	return 1 - float64(elapsed)/float64(s.recencyWindow)
}
