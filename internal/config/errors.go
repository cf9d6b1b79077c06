package config

import "errors"

// Sentinel kinds so callers can distinguish a bad value from a failed load
// with errors.Is.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
