package service

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrInvalidVote marks a vote that fails structural validation: empty
	// ids, identical items, or a winner outside the pair.
	ErrInvalidVote = errors.New("invalid vote")

	// ErrNotStarted is returned when an operation runs before Start.
	ErrNotStarted = errors.New("service not started")
)
