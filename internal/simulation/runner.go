package simulation

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/duelo/pkg/logger"
)

// rescoreSettleDelay gives the async rescore pipeline time to drain
// before verification reads derived scores.
const rescoreSettleDelay = 2 * time.Second

// Run executes the full simulation: health check, voting, verification.
// Seeding is a separate step (Seed) so a long-lived instance can be
// seeded once and voted against repeatedly.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting duelo simulation",
		logger.String("baseURL", config.BaseURL),
		logger.Int("votes", config.NumVotes),
		logger.Int("voters", config.Voters),
		logger.Float64("skipRate", config.SkipRate),
		logger.Int("topN", config.TopN))

	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	if err := runVoters(ctx, config, stats); err != nil {
		return fmt.Errorf("voting failed: %w", err)
	}

	logger.Get().Info(ctx, "waiting for rescore pipeline to settle")
	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled while settling: %w", ctx.Err())
	case <-time.After(rescoreSettleDelay):
	}

	if err := verifyResults(ctx, config, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	logger.Get().Info(ctx, "simulation completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	status, err := client.get(ctx, config.BaseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", status)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// displayFinalStats prints the final simulation statistics.
func displayFinalStats(stats *Stats) {
	var successRate, votesPerSecond float64

	if stats.VotesSubmitted > 0 {
		successRate = float64(stats.VotesSuccessful) / float64(stats.VotesSubmitted) * 100
	}
	if stats.Duration > 0 {
		votesPerSecond = float64(stats.VotesSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("pairsFetched", stats.PairsFetched),
		logger.Int("votesSubmitted", stats.VotesSubmitted),
		logger.Int("votesSuccessful", stats.VotesSuccessful),
		logger.Int("votesDuplicate", stats.VotesDuplicate),
		logger.Int("votesFailed", stats.VotesFailed),
		logger.Int("skipsSubmitted", stats.SkipsSubmitted),
		logger.Int("upsetsObserved", stats.UpsetsObserved),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("votesPerSecond", votesPerSecond))
}
