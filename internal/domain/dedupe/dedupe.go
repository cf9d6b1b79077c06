// Package dedupe tracks vote idempotency keys so a replayed submission
// (say, a client retry after a timeout) is acknowledged without being
// counted a second time.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// defaultMaxSize bounds the number of keys kept in memory.
const defaultMaxSize = 100_000

// Guard records seen vote ids to ensure at-most-once counting.
type Guard interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an id from the seen set, allowing a retry. Used
	// when a vote was recorded here but failed to apply downstream.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryGuard implements Guard with a map plus a FIFO ring of keys.
// When the ring fills, the oldest key is evicted; a vote replayed after
// its key aged out counts again, which is the accepted trade-off for a
// bounded footprint.
type inMemoryGuard struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	ring    []string
	head    int // next write position; oldest entry once the ring is full
	maxSize int
	size    atomic.Int64
}

// NewInMemoryGuard creates a bounded idempotency guard.
func NewInMemoryGuard(opts ...Option) Guard {
	g := &inMemoryGuard{
		maxSize: defaultMaxSize,
	}

	for _, opt := range opts {
		opt(g)
	}

	g.seen = make(map[string]struct{}, g.maxSize)
	g.ring = make([]string, 0, g.maxSize)

	return g
}

// SeenAndRecord atomically checks if id was seen and records it if not.
func (g *inMemoryGuard) SeenAndRecord(ctx context.Context, id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.seen[id]; exists {
		return true
	}

	if len(g.ring) < g.maxSize {
		g.ring = append(g.ring, id)
	} else {
		// Ring is full: overwrite the oldest slot.
		evicted := g.ring[g.head]
		if evicted != "" {
			delete(g.seen, evicted)
			g.size.Add(-1)
		}
		g.ring[g.head] = id
		g.head = (g.head + 1) % g.maxSize
	}

	g.seen[id] = struct{}{}
	g.size.Add(1)
	return false
}

// Unrecord removes an id from the seen set. The ring slot is blanked so
// eviction skips it.
func (g *inMemoryGuard) Unrecord(ctx context.Context, id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.seen[id]; !exists {
		return
	}
	delete(g.seen, id)
	g.size.Add(-1)
	for i, key := range g.ring {
		if key == id {
			g.ring[i] = ""
			break
		}
	}
}

// Size returns the current number of tracked keys.
func (g *inMemoryGuard) Size() int64 {
	return g.size.Load()
}
