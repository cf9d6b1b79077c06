// Package model contains domain models passed between layers.
package model

import "time"

// DefaultRating is the Elo rating assigned to newly ingested items.
const DefaultRating = 1500.0

// Item represents a comparable entity tracked by the rating engine.
type Item struct {
	ID       string // unique item identifier
	Title    string // unique title (case-insensitive)
	ImageURL string // image reference; items without one are not eligible for selection

	// Rating state, mutated only through the vote pipeline.
	Rating          float64
	ComparisonCount int
	Wins            int
	Losses          int
	SkipCount       int

	// Derived scores, recomputed after each vote or skip.
	FamiliarityScore float64 // [0,100]
	RatingConfidence float64 // [0,1]
	LastComparedAt   time.Time // zero value means never compared

	CreatedAt time.Time
}

// Eligible reports whether the item can enter the selection pool.
func (i Item) Eligible() bool {
	return i.ImageURL != ""
}

// NeverCompared reports whether the item has no comparison history.
func (i Item) NeverCompared() bool {
	return i.LastComparedAt.IsZero()
}
