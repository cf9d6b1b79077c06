package selection

import "errors"

// Sentinel kinds for selection errors.
var (
	// ErrInsufficientPool means fewer than two eligible items exist.
	// Not retried internally; callers surface a try-again-later state.
	ErrInsufficientPool = errors.New("insufficient candidate pool")
)
