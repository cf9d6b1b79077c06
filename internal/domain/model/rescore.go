package model

import "time"

// Rescore reasons.
const (
	RescoreReasonVote = "vote"
	RescoreReasonSkip = "skip"
)

// RescoreJob asks the rescore pipeline to recompute one item's derived
// scores after its counters changed.
type RescoreJob struct {
	ItemID     string
	Reason     string // vote or skip
	EnqueuedAt time.Time
}
