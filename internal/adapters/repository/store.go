// Package repository defines the item/comparison store interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/okian/duelo/internal/domain/model"
)

// Entry represents a leaderboard row.
type Entry struct {
	Rank            int
	ItemID          string
	Title           string
	Rating          float64
	ComparisonCount int
}

// VoteDelta describes the state changes one vote applies to both items.
// The core computes the new ratings; the store applies counter increments
// atomically so concurrent votes on the same item cannot lose updates.
type VoteDelta struct {
	WinnerID        string
	LoserID         string
	NewWinnerRating float64
	NewLoserRating  float64
	ComparedAt      time.Time
}

// Store provides read/write access to items and comparison history.
type Store interface {
	// CreateItem registers a new item. Titles are unique case-insensitively;
	// returns ErrDuplicateTitle on collision.
	CreateItem(ctx context.Context, item model.Item) error

	// GetItem returns an item by id. Returns ErrNotFound if unknown.
	GetItem(ctx context.Context, id string) (model.Item, error)

	// EligibleItems returns up to limit selection-eligible items (those
	// carrying an image reference). Fewer than limit means the whole
	// eligible population was returned.
	EligibleItems(ctx context.Context, limit int) ([]model.Item, error)

	// ApplyVote atomically applies one vote's counter increments and new
	// ratings to both referenced items.
	ApplyVote(ctx context.Context, delta VoteDelta) error

	// ApplySkip atomically increments skip counters for both items.
	ApplySkip(ctx context.Context, item1ID, item2ID string) error

	// UpdateScores persists recomputed derived scores for an item.
	UpdateScores(ctx context.Context, id string, familiarity, confidence float64) error

	// RecordComparison appends an immutable comparison record.
	RecordComparison(ctx context.Context, c model.Comparison) error

	// RecentComparisons returns up to limit comparisons for a session,
	// most recent first. The query is bounded regardless of history size.
	RecentComparisons(ctx context.Context, sessionID string, limit int) ([]model.Comparison, error)

	// Rank returns the leaderboard position for an item.
	// Returns ErrNotFound if the item is unknown.
	Rank(ctx context.Context, id string) (Entry, error)

	// TopN returns the top-N entries ordered by rating desc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of items tracked.
	Count(ctx context.Context) int
}
