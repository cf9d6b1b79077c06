package repository

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/okian/duelo/internal/domain/model"
	"github.com/okian/duelo/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: rating DESC, then itemID ASC (deterministic). The BST comparator
// treats "less" as "ranks earlier", so in-order traversal produces the
// leaderboard from best to worst and rank queries descend with subtree sizes.

// ratingScale controls fixed-point scaling from float64. Six decimal places
// are plenty for Elo ratings while keeping comparisons exact.
const ratingScale = 1_000_000

// defaultSessionHistoryLimit bounds how many comparisons are retained per
// session for recency lookups.
const defaultSessionHistoryLimit = 200

type ratingFP int64

func toFixedPoint(x float64) ratingFP {
	if math.IsNaN(x) {
		return 0
	}
	if math.IsInf(x, 1) {
		return ratingFP(math.MaxInt64)
	}
	if math.IsInf(x, -1) {
		return ratingFP(math.MinInt64)
	}
	scaled := x * ratingScale
	if scaled > float64(math.MaxInt64) {
		return ratingFP(math.MaxInt64)
	}
	if scaled < float64(math.MinInt64) {
		return ratingFP(math.MinInt64)
	}
	return ratingFP(math.Round(scaled))
}

// treap node
type node struct {
	id     string
	rating ratingFP
	prio   uint64
	left   *node
	right  *node
	size   int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aRating, aID) ranks earlier than (bRating, bID).
func less(aRating ratingFP, aID string, bRating ratingFP, bID string) bool {
	if aRating != bRating {
		return aRating > bRating // higher rating ranks earlier
	}
	return aID < bID // tie-breaker by id asc
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

// ratingToPriority keeps higher ratings near the treap root so leaderboard
// reads touch fewer nodes. Negative ratings are offset into uint64 range.
func ratingToPriority(rating ratingFP) uint64 {
	const offset = uint64(1) << 63
	return uint64(rating) + offset
}

func insert(n *node, id string, rating ratingFP) *node {
	if n == nil {
		return &node{id: id, rating: rating, prio: ratingToPriority(rating), size: 1}
	}
	if less(rating, id, n.rating, n.id) {
		n.left = insert(n.left, id, rating)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, rating)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, rating ratingFP) *node {
	if n == nil {
		return nil
	}
	if rating == n.rating && id == n.id {
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, rating)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, rating)
		}
	} else if less(rating, id, n.rating, n.id) {
		n.left = deleteNode(n.left, id, rating)
	} else {
		n.right = deleteNode(n.right, id, rating)
	}
	fix(n)
	return n
}

// rankOf returns the 1-based position of (rating, id) by descending with
// subtree sizes. Returns 0 when the node is absent.
func rankOf(n *node, id string, rating ratingFP) int {
	rank := 1
	for n != nil {
		switch {
		case rating == n.rating && id == n.id:
			return rank + nsize(n.left)
		case less(rating, id, n.rating, n.id):
			n = n.left
		default:
			rank += nsize(n.left) + 1
			n = n.right
		}
	}
	return 0
}

// collectTopN appends up to limit entries in rank order.
func collectTopN(n *node, limit int, items map[string]*model.Item, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, items, out)
	if len(*out) < limit {
		if item, exists := items[n.id]; exists {
			*out = append(*out, Entry{
				ItemID:          item.ID,
				Title:           item.Title,
				Rating:          item.Rating,
				ComparisonCount: item.ComparisonCount,
			})
		}
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, items, out)
	}
}

// MemoryStore implements Store with a treap-ordered leaderboard and
// in-memory comparison history. All item mutations hold the store lock, so
// a vote's counter increments land atomically.
type MemoryStore struct {
	mu      sync.RWMutex
	root    *node
	items   map[string]*model.Item
	byTitle map[string]string // lowercased title -> item id

	comparisons []model.Comparison
	bySession   map[string][]model.Comparison

	sessionHistoryLimit int
}

// NewMemoryStore constructs an in-memory store with configuration options.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		items:               make(map[string]*model.Item),
		byTitle:             make(map[string]string),
		bySession:           make(map[string][]model.Comparison),
		sessionHistoryLimit: defaultSessionHistoryLimit,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// CreateItem registers a new item with a case-insensitively unique title.
func (s *MemoryStore) CreateItem(ctx context.Context, item model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(strings.TrimSpace(item.Title))
	if _, exists := s.byTitle[key]; exists {
		return ErrDuplicateTitle
	}
	if _, exists := s.items[item.ID]; exists {
		return ErrDuplicateTitle
	}

	stored := item
	s.items[item.ID] = &stored
	s.byTitle[key] = item.ID
	s.root = insert(s.root, item.ID, toFixedPoint(item.Rating))

	metrics.UpdateTotalItems(len(s.items))
	return nil
}

// GetItem returns a copy of the item.
func (s *MemoryStore) GetItem(ctx context.Context, id string) (model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return model.Item{}, ErrNotFound
	}
	return *item, nil
}

// EligibleItems returns up to limit items carrying an image reference.
// Map iteration order varies between calls, which is all the pool
// randomness the selection engine needs from the store.
func (s *MemoryStore) EligibleItems(ctx context.Context, limit int) ([]model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		return nil, nil
	}
	out := make([]model.Item, 0, limit)
	for _, item := range s.items {
		if !item.Eligible() {
			continue
		}
		out = append(out, *item)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// ApplyVote applies counter increments and new ratings to both items under
// a single critical section.
func (s *MemoryStore) ApplyVote(ctx context.Context, delta VoteDelta) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	winner, ok := s.items[delta.WinnerID]
	if !ok {
		return ErrNotFound
	}
	loser, ok := s.items[delta.LoserID]
	if !ok {
		return ErrNotFound
	}

	s.reposition(winner, delta.NewWinnerRating)
	winner.Wins++
	winner.ComparisonCount++
	winner.LastComparedAt = delta.ComparedAt

	s.reposition(loser, delta.NewLoserRating)
	loser.Losses++
	loser.ComparisonCount++
	loser.LastComparedAt = delta.ComparedAt

	metrics.RecordStoreUpdateLatency(float64(time.Since(start).Nanoseconds()) / 1e6)
	return nil
}

// reposition moves an item's treap node to its new rating. Caller holds the lock.
func (s *MemoryStore) reposition(item *model.Item, newRating float64) {
	oldFP := toFixedPoint(item.Rating)
	newFP := toFixedPoint(newRating)
	if oldFP != newFP {
		s.root = deleteNode(s.root, item.ID, oldFP)
		s.root = insert(s.root, item.ID, newFP)
	}
	item.Rating = newRating
}

// ApplySkip increments both items' skip counters.
func (s *MemoryStore) ApplySkip(ctx context.Context, item1ID, item2ID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.items[item1ID]
	if !ok {
		return ErrNotFound
	}
	b, ok := s.items[item2ID]
	if !ok {
		return ErrNotFound
	}
	a.SkipCount++
	b.SkipCount++
	return nil
}

// UpdateScores persists recomputed derived scores.
func (s *MemoryStore) UpdateScores(ctx context.Context, id string, familiarity, confidence float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return ErrNotFound
	}
	item.FamiliarityScore = familiarity
	item.RatingConfidence = confidence
	return nil
}

// RecordComparison appends an immutable comparison record and indexes it
// by session for recency lookups.
func (s *MemoryStore) RecordComparison(ctx context.Context, c model.Comparison) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.comparisons = append(s.comparisons, c)
	if c.SessionID != "" {
		history := append(s.bySession[c.SessionID], c)
		if len(history) > s.sessionHistoryLimit {
			history = history[len(history)-s.sessionHistoryLimit:]
		}
		s.bySession[c.SessionID] = history
	}
	return nil
}

// RecentComparisons returns up to limit comparisons for a session, most
// recent first.
func (s *MemoryStore) RecentComparisons(ctx context.Context, sessionID string, limit int) ([]model.Comparison, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sessionID == "" || limit <= 0 {
		return nil, nil
	}
	history := s.bySession[sessionID]
	n := limit
	if n > len(history) {
		n = len(history)
	}
	out := make([]model.Comparison, 0, n)
	for i := len(history) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, history[i])
	}
	return out, nil
}

// Rank returns the current leaderboard position for an item.
func (s *MemoryStore) Rank(ctx context.Context, id string) (Entry, error) {
	start := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	rank := rankOf(s.root, id, toFixedPoint(item.Rating))
	if rank == 0 {
		return Entry{}, ErrNotFound
	}

	metrics.RecordStoreQueryLatency(float64(time.Since(start).Nanoseconds()) / 1e6)
	return Entry{
		Rank:            rank,
		ItemID:          item.ID,
		Title:           item.Title,
		Rating:          item.Rating,
		ComparisonCount: item.ComparisonCount,
	}, nil
}

// TopN returns the top-N entries ordered by rating desc.
func (s *MemoryStore) TopN(ctx context.Context, n int) ([]Entry, error) {
	start := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 {
		return nil, ErrInvalidLimit
	}
	out := make([]Entry, 0, n)
	collectTopN(s.root, n, s.items, &out)
	for i := range out {
		out[i].Rank = i + 1
	}

	metrics.RecordStoreQueryLatency(float64(time.Since(start).Nanoseconds()) / 1e6)
	return out, nil
}

// Count returns the number of items tracked.
func (s *MemoryStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
