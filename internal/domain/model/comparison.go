package model

import "time"

// Comparison is an immutable record of one pairwise judgment.
// It is created exactly once per vote and never mutated.
type Comparison struct {
	ID       string
	Item1ID  string
	Item2ID  string
	WinnerID string // equals Item1ID or Item2ID; empty for a skip

	// RatingDifference is |rating1 - rating2| evaluated before the update.
	RatingDifference float64
	// WasUpset is true when the lower-rated side won by more than the
	// configured upset threshold.
	WasUpset bool

	// SessionID attributes the judgment to a session; empty for anonymous votes.
	SessionID string

	Skipped   bool
	CreatedAt time.Time
}

// Vote is a client-submitted judgment before it has been applied.
type Vote struct {
	// VoteID is the idempotency key for this submission. Replays with the
	// same id are acknowledged without re-counting.
	VoteID    string
	Item1ID   string
	Item2ID   string
	WinnerID  string
	SessionID string
	TS        time.Time
}
