package config

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if DUELO_CONFIG is set
//  3. env (prefix DUELO_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("DUELO_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Environment variables: DUELO_ADDR, DUELO_QUEUE_SIZE, ...
	// Map env keys like DUELO_QUEUE_SIZE -> queue_size (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("DUELO_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "duelo_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects configurations the service cannot run with. Invalid
// values are errors, never silently clamped.
func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.StorageDriver {
	case DriverMemory:
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: postgres_dsn required for postgres driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage_driver %q", ErrInvalidConfig, c.StorageDriver)
	}
	if c.KFactorLow <= 0 || c.KFactorMedium <= 0 || c.KFactorHigh <= 0 {
		return fmt.Errorf("%w: k-factors must be positive", ErrInvalidConfig)
	}
	// K factors are keyed by confidence tier: an unsettled rating (low
	// confidence) must move at least as fast as an established one.
	if c.KFactorLow < c.KFactorMedium || c.KFactorMedium < c.KFactorHigh {
		return fmt.Errorf("%w: k-factors must satisfy low >= medium >= high", ErrInvalidConfig)
	}
	if c.ConfidenceMedium <= 0 || c.ConfidenceHigh <= c.ConfidenceMedium || c.ConfidenceHigh > 1 {
		return fmt.Errorf("%w: confidence thresholds must satisfy 0 < medium < high <= 1", ErrInvalidConfig)
	}
	if c.UpsetThreshold <= 0 {
		return fmt.Errorf("%w: upset_threshold must be positive", ErrInvalidConfig)
	}
	sum := c.WeightExposure + c.WeightWinRate + c.WeightRecency + c.WeightEngagement
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("%w: familiarity weights must sum to 1.0, got %v", ErrInvalidConfig, sum)
	}
	if c.MinComparisonsForConfidence < 1 {
		return fmt.Errorf("%w: min_comparisons_for_confidence must be at least 1", ErrInvalidConfig)
	}
	if c.ExposureSaturation < 1 {
		return fmt.Errorf("%w: exposure_saturation must be at least 1", ErrInvalidConfig)
	}
	if c.SessionHistoryLimit < 1 {
		return fmt.Errorf("%w: session_history_limit must be at least 1", ErrInvalidConfig)
	}
	if c.RecencyWindowDays < 1 {
		return fmt.Errorf("%w: recency_window_days must be at least 1", ErrInvalidConfig)
	}
	if c.PoolCap < 2 {
		return fmt.Errorf("%w: pool_cap must be at least 2", ErrInvalidConfig)
	}
	if c.RecencyLookback < 0 {
		return fmt.Errorf("%w: recency_lookback must not be negative", ErrInvalidConfig)
	}
	if c.DiversityStrength < 0 || c.DiversityStrength > 1 {
		return fmt.Errorf("%w: diversity_strength must be within [0,1]", ErrInvalidConfig)
	}
	return nil
}
