// Command simulate exercises a running duelo instance over its HTTP
// API: seeding items, casting votes from concurrent voters, and
// verifying leaderboard invariants afterwards.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/duelo/internal/simulation"
	"github.com/okian/duelo/pkg/logger"
)

var (
	baseURL string
	timeout time.Duration
	verbose bool
)

func main() {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Load and verification harness for a duelo instance",
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:9080", "base URL of the duelo service")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "per-request HTTP timeout")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "log every request outcome")

	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(runCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Get().Error(ctx, "simulation failed", logger.Error(err))
		os.Exit(1)
	}
}

func seedCmd() *cobra.Command {
	var items int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the instance with generated items",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			config := &simulation.Config{
				BaseURL:  baseURL,
				NumItems: items,
				Timeout:  timeout,
				Verbose:  verbose,
			}

			_, err := simulation.Seed(ctx, config)
			return err
		},
	}

	cmd.Flags().IntVar(&items, "items", 50, "number of items to create")

	return cmd
}

func runCmd() *cobra.Command {
	var (
		items    int
		votes    int
		voters   int
		topN     int
		skipRate float64
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Seed, vote, and verify end to end",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			config := &simulation.Config{
				BaseURL:  baseURL,
				NumItems: items,
				NumVotes: votes,
				Voters:   voters,
				TopN:     topN,
				Timeout:  timeout,
				SkipRate: skipRate,
				Verbose:  verbose,
			}

			if _, err := simulation.Seed(ctx, config); err != nil {
				return err
			}

			return simulation.Run(ctx, config)
		},
	}

	cmd.Flags().IntVar(&items, "items", 50, "number of items to create")
	cmd.Flags().IntVar(&votes, "votes", 1000, "total number of votes to cast")
	cmd.Flags().IntVar(&voters, "voters", 8, "number of concurrent voters")
	cmd.Flags().IntVar(&topN, "top", 20, "leaderboard size to verify")
	cmd.Flags().Float64Var(&skipRate, "skip-rate", 0.1, "probability a voter skips a pair")

	return cmd
}
