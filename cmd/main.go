package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/duelo/internal/adapters/http/api"
	"github.com/okian/duelo/internal/adapters/http/swagger"
	"github.com/okian/duelo/internal/adapters/repository"
	app "github.com/okian/duelo/internal/app"
	"github.com/okian/duelo/internal/config"
	"github.com/okian/duelo/internal/domain/outcome"
	"github.com/okian/duelo/internal/domain/rating"
	"github.com/okian/duelo/internal/domain/scoring"
	"github.com/okian/duelo/internal/domain/selection"
	"github.com/okian/duelo/pkg/logger"
	"github.com/okian/duelo/pkg/metrics"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	systemMetricsInterval  = 10 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		// Logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Create and start the service with configuration options
	opts := []app.Option{
		app.WithLogger(loggerInstance),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.RescoreQueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithMaxLeaderboardLimit(cfg.MaxLeaderboardLimit),
		app.WithSessionHistoryLimit(cfg.SessionHistoryLimit),
		app.WithRatingUpdater(rating.NewUpdater(
			// Config keys K by confidence tier (low confidence gets the
			// biggest K); the updater takes K values ascending.
			rating.WithKFactors(cfg.KFactorHigh, cfg.KFactorMedium, cfg.KFactorLow),
			rating.WithConfidenceThresholds(cfg.ConfidenceMedium, cfg.ConfidenceHigh),
		)),
		app.WithScorer(scoring.NewScorer(
			scoring.WithMinComparisonsForConfidence(cfg.MinComparisonsForConfidence),
			scoring.WithExposureSaturation(cfg.ExposureSaturation),
			scoring.WithRecencyWindow(time.Duration(cfg.RecencyWindowDays)*24*time.Hour),
			scoring.WithWeights(scoring.Weights{
				Exposure:   cfg.WeightExposure,
				WinRate:    cfg.WeightWinRate,
				Recency:    cfg.WeightRecency,
				Engagement: cfg.WeightEngagement,
			}),
		)),
		app.WithEvaluator(outcome.NewEvaluator(
			outcome.WithUpsetThreshold(cfg.UpsetThreshold),
		)),
		app.WithSelectionOptions(
			selection.WithPoolCap(cfg.PoolCap),
			selection.WithRecencyLookback(cfg.RecencyLookback),
			selection.WithDiversityStrength(cfg.DiversityStrength),
		),
	}

	if cfg.StorageDriver == config.DriverPostgres {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			os.Stderr.WriteString("failed to open postgres: " + err.Error() + "\n")
			return
		}
		defer func() { _ = db.Close() }()

		store := repository.NewPostgresStore(db)
		if err := store.Migrate(ctx); err != nil {
			os.Stderr.WriteString("failed to migrate postgres schema: " + err.Error() + "\n")
			return
		}
		loggerInstance.Info(ctx, "using postgres store")
		opts = append(opts, app.WithStore(store))
	}

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	// Start service metrics updater
	go startServiceMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// Register API documentation under /api-docs
	swagger.Register(ctx, mux)

	// Register business API routes with the service dependency.
	apiServer := api.NewServer(svc, svc, cfg.MaxLeaderboardLimit)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	// Update memory usage
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	// Update goroutine count
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}

// updateServiceMetrics updates service-level metrics.
func updateServiceMetrics(svc *app.Service) {
	// GetStats refreshes queue depth, item totals, and worker gauges.
	_ = svc.GetStats()
}
