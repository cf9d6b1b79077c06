// Package selection implements weighted-random pair selection over the
// eligible item pool.
//
// Each candidate's weight is the product of three terms: a vote-count
// multiplier that strongly favors under-voted items, a per-session recency
// decay that suppresses items the session just saw, and a diversity penalty
// that suppresses items whose similarity group the session just saw. Two
// distinct items are then drawn without replacement.
package selection

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/duelo/internal/domain/model"
	"github.com/okian/duelo/internal/domain/similarity"
	"github.com/okian/duelo/pkg/metrics"
)

// Default selection configuration constants.
const (
	defaultPoolCap         = 100
	defaultRecencyLookback = 30

	defaultDiversityStrength = 0.8
)

// VoteCountTier maps a maximum comparison count to a weight multiplier.
// Tiers are evaluated in order; the first matching tier wins.
type VoteCountTier struct {
	MaxComparisons int
	Multiplier     float64
}

// DecayTier maps a maximum "comparisons ago" distance to a decay factor.
type DecayTier struct {
	MaxAgo int
	Factor float64
}

// defaultVoteCountTiers favor items with little history: a never-compared
// item outweighs a settled one 1000:1.
func defaultVoteCountTiers() []VoteCountTier {
	return []VoteCountTier{
		{MaxComparisons: 0, Multiplier: 1000},
		{MaxComparisons: 5, Multiplier: 100},
		{MaxComparisons: 20, Multiplier: 10},
	}
}

func defaultRecencyTiers() []DecayTier {
	return []DecayTier{
		{MaxAgo: 5, Factor: 0.1},
		{MaxAgo: 10, Factor: 0.3},
		{MaxAgo: 20, Factor: 0.5},
		{MaxAgo: 30, Factor: 0.7},
	}
}

func defaultDiversityTiers() []DecayTier {
	return []DecayTier{
		{MaxAgo: 5, Factor: 0.1},
		{MaxAgo: 10, Factor: 0.3},
		{MaxAgo: 15, Factor: 0.5},
		{MaxAgo: 20, Factor: 0.7},
	}
}

// Pool supplies candidates and session history. Implemented by the
// repository store.
type Pool interface {
	EligibleItems(ctx context.Context, limit int) ([]model.Item, error)
	RecentComparisons(ctx context.Context, sessionID string, limit int) ([]model.Comparison, error)
	GetItem(ctx context.Context, id string) (model.Item, error)
}

// Classifier maps an item title to a similarity-group label.
type Classifier func(title string) (string, bool)

// Engine draws comparison pairs from the pool.
type Engine struct {
	pool     Pool
	classify Classifier

	poolCap           int
	recencyLookback   int
	voteCountTiers    []VoteCountTier
	recencyTiers      []DecayTier
	diversityTiers    []DecayTier
	diversityStrength float64

	// rand.Rand is not safe for concurrent use; selections may run on
	// many requests at once.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewEngine creates a selection engine over the given pool.
func NewEngine(pool Pool, opts ...Option) *Engine {
	e := &Engine{
		pool:              pool,
		classify:          similarity.Classify,
		poolCap:           defaultPoolCap,
		recencyLookback:   defaultRecencyLookback,
		voteCountTiers:    defaultVoteCountTiers(),
		recencyTiers:      defaultRecencyTiers(),
		diversityTiers:    defaultDiversityTiers(),
		diversityStrength: defaultDiversityStrength,
		rng:               rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // selection bias, not cryptography
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// SelectPair draws two distinct items for the session. An empty sessionID
// disables personalization (no recency or diversity dampening). Returns
// ErrInsufficientPool when fewer than two eligible items exist.
func (e *Engine) SelectPair(ctx context.Context, sessionID string) (model.Item, model.Item, error) {
	start := time.Now()

	candidates, err := e.pool.EligibleItems(ctx, e.poolCap)
	if err != nil {
		return model.Item{}, model.Item{}, err
	}
	if len(candidates) < 2 {
		metrics.RecordInsufficientPool()
		return model.Item{}, model.Item{}, ErrInsufficientPool
	}
	metrics.UpdateSelectionPoolSize(len(candidates))

	recent, err := e.sessionRecency(ctx, sessionID)
	if err != nil {
		return model.Item{}, model.Item{}, err
	}

	weights := make([]float64, len(candidates))
	for i, item := range candidates {
		weights[i] = e.weight(item, recent)
	}

	first, second, ok := e.drawPair(weights)
	if !ok {
		// Degenerate weights (all zero); fall back to uniform selection
		// over the raw pool rather than failing the request.
		metrics.RecordSelectionFallback()
		first, second = e.drawUniform(len(candidates))
	}

	metrics.RecordSelectionLatency(float64(time.Since(start).Nanoseconds()) / 1e6)
	return candidates[first], candidates[second], nil
}

// weight computes the selection weight for one candidate.
func (e *Engine) weight(item model.Item, recent *sessionRecency) float64 {
	w := e.voteCountWeight(item.ComparisonCount)
	w *= e.recencyDecay(recent.itemAgo(item.ID))
	if group, ok := e.classify(item.Title); ok {
		w *= e.diversityPenalty(recent.groupAgo(group))
	}
	return w
}

// voteCountWeight favors under-voted items via the configured step tiers.
func (e *Engine) voteCountWeight(comparisonCount int) float64 {
	for _, tier := range e.voteCountTiers {
		if comparisonCount <= tier.MaxComparisons {
			return tier.Multiplier
		}
	}
	return 1
}

// recencyDecay dampens an item the session saw ago comparisons back.
// ago == 0 means never seen in the lookback window.
func (e *Engine) recencyDecay(ago int) float64 {
	if ago <= 0 {
		return 1
	}
	for _, tier := range e.recencyTiers {
		if ago <= tier.MaxAgo {
			return tier.Factor
		}
	}
	return 1
}

// diversityPenalty dampens an item whose similarity group the session saw
// recently. The strength multiplier pulls the penalty toward 1.0 so near
// duplicates are discouraged without being locked out.
func (e *Engine) diversityPenalty(ago int) float64 {
	if ago <= 0 {
		return 1
	}
	for _, tier := range e.diversityTiers {
		if ago <= tier.MaxAgo {
			return 1 - e.diversityStrength*(1-tier.Factor)
		}
	}
	return 1
}

// drawPair samples two distinct indices proportionally to weights.
// Returns ok=false when the weights cannot support a draw.
func (e *Engine) drawPair(weights []float64) (int, int, bool) {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()

	first, ok := drawWeighted(e.rng, weights, -1)
	if !ok {
		return 0, 0, false
	}
	second, ok := drawWeighted(e.rng, weights, first)
	if !ok {
		return 0, 0, false
	}
	return first, second, true
}

// drawUniform samples two distinct indices uniformly.
func (e *Engine) drawUniform(n int) (int, int) {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()

	first := e.rng.Intn(n)
	second := e.rng.Intn(n - 1)
	if second >= first {
		second++
	}
	return first, second
}

// drawWeighted samples one index proportionally to weights, skipping the
// excluded index. Returns ok=false when the remaining total weight is zero.
func drawWeighted(rng *rand.Rand, weights []float64, exclude int) (int, bool) {
	total := 0.0
	for i, w := range weights {
		if i == exclude || w <= 0 {
			continue
		}
		total += w
	}
	if total <= 0 {
		return 0, false
	}

	target := rng.Float64() * total
	acc := 0.0
	last := -1
	for i, w := range weights {
		if i == exclude || w <= 0 {
			continue
		}
		acc += w
		last = i
		if target < acc {
			return i, true
		}
	}
	// Floating-point accumulation can leave target a hair past acc.
	return last, last >= 0
}
