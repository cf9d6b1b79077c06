package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound       = errors.New("item not found")
	ErrDuplicateTitle = errors.New("duplicate item title")
	ErrInvalidLimit   = errors.New("invalid leaderboard limit")
)
