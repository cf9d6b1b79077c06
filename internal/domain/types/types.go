// Package types contains common types used across the application
package types

// Entry represents a leaderboard entry
type Entry struct {
	Rank            int     `json:"rank"`
	ItemID          string  `json:"item_id"`
	Title           string  `json:"title"`
	Rating          float64 `json:"rating"`
	ComparisonCount int     `json:"comparison_count"`
}

// PairItem is one side of a comparison pair as served to clients.
type PairItem struct {
	ItemID   string  `json:"item_id"`
	Title    string  `json:"title"`
	ImageURL string  `json:"image_url"`
	Rating   float64 `json:"rating"`
}

// Pair is the two items offered for a judgment. Ordering carries no meaning.
type Pair struct {
	ItemA PairItem `json:"item_a"`
	ItemB PairItem `json:"item_b"`
}

// VoteResult is the outcome of applying one vote.
type VoteResult struct {
	NewRating1       float64 `json:"new_rating1"`
	NewRating2       float64 `json:"new_rating2"`
	RatingDifference float64 `json:"rating_difference"`
	WasUpset         bool    `json:"was_upset"`
	Duplicate        bool    `json:"duplicate"`
}

// ItemStats exposes an item's counters and derived scores.
type ItemStats struct {
	ItemID           string  `json:"item_id"`
	Title            string  `json:"title"`
	Rating           float64 `json:"rating"`
	ComparisonCount  int     `json:"comparison_count"`
	Wins             int     `json:"wins"`
	Losses           int     `json:"losses"`
	SkipCount        int     `json:"skip_count"`
	FamiliarityScore float64 `json:"familiarity_score"`
	RatingConfidence float64 `json:"rating_confidence"`
	LastComparedAt   string  `json:"last_compared_at,omitempty"`
}
