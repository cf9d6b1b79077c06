package selection

import "math/rand"

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithPoolCap bounds the candidate pool size. Values below 2 are ignored.
func WithPoolCap(cap int) Option {
	return func(e *Engine) {
		if cap >= 2 {
			e.poolCap = cap
		}
	}
}

// WithRecencyLookback sets how many recent comparisons feed the session
// recency map. Non-positive values are ignored.
func WithRecencyLookback(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.recencyLookback = n
		}
	}
}

// WithVoteCountTiers replaces the vote-count weight tiers. Tiers must be
// non-empty, ordered by MaxComparisons ascending, with positive
// multipliers; invalid sets are ignored.
func WithVoteCountTiers(tiers []VoteCountTier) Option {
	return func(e *Engine) {
		if len(tiers) == 0 {
			return
		}
		prev := -1
		for _, t := range tiers {
			if t.MaxComparisons <= prev || t.Multiplier <= 0 {
				return
			}
			prev = t.MaxComparisons
		}
		e.voteCountTiers = tiers
	}
}

// WithRecencyTiers replaces the per-item recency decay tiers. Same
// validity rules as WithVoteCountTiers, with factors in (0,1].
func WithRecencyTiers(tiers []DecayTier) Option {
	return func(e *Engine) {
		if validDecayTiers(tiers) {
			e.recencyTiers = tiers
		}
	}
}

// WithDiversityTiers replaces the similarity-group decay tiers.
func WithDiversityTiers(tiers []DecayTier) Option {
	return func(e *Engine) {
		if validDecayTiers(tiers) {
			e.diversityTiers = tiers
		}
	}
}

// WithDiversityStrength sets how hard group repeats are dampened, in [0,1].
// 0 disables the penalty entirely; out-of-range values are ignored.
func WithDiversityStrength(strength float64) Option {
	return func(e *Engine) {
		if strength >= 0 && strength <= 1 {
			e.diversityStrength = strength
		}
	}
}

// WithClassifier replaces the similarity classifier.
func WithClassifier(classify Classifier) Option {
	return func(e *Engine) {
		if classify != nil {
			e.classify = classify
		}
	}
}

// WithRandSource seeds the engine's random source. Deterministic seeds are
// for tests; production uses the time-seeded default.
func WithRandSource(src rand.Source) Option {
	return func(e *Engine) {
		if src != nil {
			e.rng = rand.New(src) //nolint:gosec // selection bias, not cryptography
		}
	}
}

func validDecayTiers(tiers []DecayTier) bool {
	if len(tiers) == 0 {
		return false
	}
	prev := 0
	for _, t := range tiers {
		if t.MaxAgo <= prev || t.Factor <= 0 || t.Factor > 1 {
			return false
		}
		prev = t.MaxAgo
	}
	return true
}
