// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults come from New; file and environment layers override them.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Storage driver names accepted by StorageDriver.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StorageDriver selects the item store backend: memory or postgres.
	StorageDriver string `koanf:"storage_driver"`

	// PostgresDSN is the connection string used when StorageDriver is postgres.
	PostgresDSN string `koanf:"postgres_dsn"`

	// RescoreQueueSize bounds the in-memory rescore queue.
	RescoreQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of rescore workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the vote deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// SessionHistoryLimit bounds per-session comparison history retention.
	SessionHistoryLimit int `koanf:"session_history_limit"`

	// K-factor tiers keyed by rating confidence.
	KFactorLow    float64 `koanf:"k_factor_low"`
	KFactorMedium float64 `koanf:"k_factor_medium"`
	KFactorHigh   float64 `koanf:"k_factor_high"`

	// Confidence cut-offs selecting the medium and high K tiers.
	ConfidenceMedium float64 `koanf:"confidence_medium"`
	ConfidenceHigh   float64 `koanf:"confidence_high"`

	// UpsetThreshold is the pre-vote rating gap at which a lower-rated
	// winner counts as an upset.
	UpsetThreshold float64 `koanf:"upset_threshold"`

	// Familiarity factor weights; they must sum to 1.0.
	WeightExposure   float64 `koanf:"weight_exposure"`
	WeightWinRate    float64 `koanf:"weight_win_rate"`
	WeightRecency    float64 `koanf:"weight_recency"`
	WeightEngagement float64 `koanf:"weight_engagement"`

	// MinComparisonsForConfidence is where confidence saturates at 1.0.
	MinComparisonsForConfidence int `koanf:"min_comparisons_for_confidence"`

	// ExposureSaturation is the comparison count at which the exposure
	// factor of familiarity reaches its maximum.
	ExposureSaturation int `koanf:"exposure_saturation"`

	// RecencyWindowDays is the familiarity recency decay window.
	RecencyWindowDays int `koanf:"recency_window_days"`

	// PoolCap bounds the candidate pool considered per pair selection.
	PoolCap int `koanf:"pool_cap"`

	// RecencyLookback is how many recent comparisons per session inform
	// selection weighting.
	RecencyLookback int `koanf:"recency_lookback"`

	// DiversityStrength scales the similarity-group repeat penalty, in [0,1].
	DiversityStrength float64 `koanf:"diversity_strength"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                    "info",
		Addr:                        ":9080",
		StorageDriver:               DriverMemory,
		RescoreQueueSize:            10_000,
		WorkerCount:                 runtime.NumCPU() * 2,
		DedupeSize:                  100_000,
		MaxLeaderboardLimit:         100,
		SessionHistoryLimit:         200,
		KFactorLow:                  32,
		KFactorMedium:               24,
		KFactorHigh:                 16,
		ConfidenceMedium:            0.33,
		ConfidenceHigh:              0.8,
		UpsetThreshold:              200,
		WeightExposure:              0.40,
		WeightWinRate:               0.25,
		WeightRecency:               0.20,
		WeightEngagement:            0.15,
		MinComparisonsForConfidence: 30,
		ExposureSaturation:          50,
		RecencyWindowDays:           30,
		PoolCap:                     100,
		RecencyLookback:             30,
		DiversityStrength:           0.8,
	}
}
