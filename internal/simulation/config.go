// Package simulation drives a running duelo instance over HTTP: it seeds
// items, runs concurrent voters with realistic judgment behavior, and
// verifies the resulting leaderboard invariants.
package simulation

import "time"

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL  string        // Base URL of the service
	NumItems int           // Number of items to seed
	NumVotes int           // Total votes to cast across all voters
	TopN     int           // Number of top entries to fetch
	Voters   int           // Number of concurrent voters
	Timeout  time.Duration // HTTP request timeout
	SkipRate float64       // Fraction of served pairs to skip
	Verbose  bool          // Enable verbose logging
}

// pairItem mirrors one side of GET /pair.
type pairItem struct {
	ItemID   string  `json:"item_id"`
	Title    string  `json:"title"`
	ImageURL string  `json:"image_url"`
	Rating   float64 `json:"rating"`
}

// pairResponse mirrors GET /pair.
type pairResponse struct {
	ItemA pairItem `json:"item_a"`
	ItemB pairItem `json:"item_b"`
}

// voteRequest mirrors POST /votes.
type voteRequest struct {
	VoteID    string `json:"vote_id"`
	Item1ID   string `json:"item1_id"`
	Item2ID   string `json:"item2_id"`
	WinnerID  string `json:"winner_id"`
	SessionID string `json:"session_id"`
}

// voteResult mirrors the POST /votes response.
type voteResult struct {
	NewRating1       float64 `json:"new_rating1"`
	NewRating2       float64 `json:"new_rating2"`
	RatingDifference float64 `json:"rating_difference"`
	WasUpset         bool    `json:"was_upset"`
	Duplicate        bool    `json:"duplicate"`
}

// skipRequest mirrors POST /skips.
type skipRequest struct {
	Item1ID   string `json:"item1_id"`
	Item2ID   string `json:"item2_id"`
	SessionID string `json:"session_id"`
}

// itemRequest mirrors POST /items.
type itemRequest struct {
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
}

// itemResponse mirrors the POST /items response.
type itemResponse struct {
	ItemID string  `json:"item_id"`
	Title  string  `json:"title"`
	Rating float64 `json:"rating"`
}

// entry mirrors a leaderboard row.
type entry struct {
	Rank            int     `json:"rank"`
	ItemID          string  `json:"item_id"`
	Title           string  `json:"title"`
	Rating          float64 `json:"rating"`
	ComparisonCount int     `json:"comparison_count"`
}

// itemStats mirrors GET /items/{id}/stats.
type itemStats struct {
	ItemID           string  `json:"item_id"`
	Title            string  `json:"title"`
	Rating           float64 `json:"rating"`
	ComparisonCount  int     `json:"comparison_count"`
	Wins             int     `json:"wins"`
	Losses           int     `json:"losses"`
	SkipCount        int     `json:"skip_count"`
	FamiliarityScore float64 `json:"familiarity_score"`
	RatingConfidence float64 `json:"rating_confidence"`
}

// Stats holds simulation statistics.
type Stats struct {
	PairsFetched       int
	VotesSubmitted     int
	VotesSuccessful    int
	VotesDuplicate     int
	VotesFailed        int
	SkipsSubmitted     int
	UpsetsObserved     int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
