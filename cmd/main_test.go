package main

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/okian/duelo/internal/adapters/http/api"
	"github.com/okian/duelo/internal/adapters/http/swagger"
	app "github.com/okian/duelo/internal/app"
	"github.com/okian/duelo/internal/config"
	"github.com/okian/duelo/internal/domain/rating"
	"github.com/okian/duelo/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("DUELO_ADDR", ":8080")
			_ = os.Setenv("DUELO_QUEUE_SIZE", "1000")
			_ = os.Setenv("DUELO_WORKER_COUNT", "4")
			defer func() {
				_ = os.Unsetenv("DUELO_ADDR")
				_ = os.Unsetenv("DUELO_QUEUE_SIZE")
				_ = os.Unsetenv("DUELO_WORKER_COUNT")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.RescoreQueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When testing service creation", func() {
			convey.Convey("Then service should be creatable with default options", func() {
				svc := app.New()
				convey.So(svc, convey.ShouldNotBeNil)
			})

			convey.Convey("And service should be creatable with custom options", func() {
				svc := app.New(
					app.WithWorkerCount(8),
					app.WithQueueSize(2000),
					app.WithDedupeSize(1000),
				)
				convey.So(svc, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When testing HTTP server creation", func() {
			svc := app.New()
			convey.So(svc, convey.ShouldNotBeNil)

			convey.Convey("Then HTTP server should be creatable", func() {
				server := api.NewServer(svc, svc, 100)
				convey.So(server, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When testing metrics initialization", func() {
			convey.Convey("Then metrics manager should be creatable", func() {
				registry := prometheus.NewRegistry()
				manager := metrics.NewManager(metrics.WithPrometheusRegistry(registry))
				convey.So(manager, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When testing system metrics updater", func() {
			convey.Convey("Then it should stop with its context", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startSystemMetricsUpdater(ctx)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing system metrics update", func() {
			convey.Convey("Then it should update metrics without panicking", func() {
				convey.So(func() {
					updateSystemMetrics()
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing service metrics update", func() {
			svc := app.New()
			convey.So(svc, convey.ShouldNotBeNil)

			convey.Convey("Then it should update metrics without panicking", func() {
				convey.So(func() {
					updateServiceMetrics(svc)
				}, convey.ShouldNotPanic)
			})
		})
	})
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given main application integration", t, func() {
		convey.Convey("When testing full application setup", func() {
			_ = os.Setenv("DUELO_ADDR", ":8080")
			_ = os.Setenv("DUELO_QUEUE_SIZE", "1000")
			_ = os.Setenv("DUELO_WORKER_COUNT", "2")
			defer func() {
				_ = os.Unsetenv("DUELO_ADDR")
				_ = os.Unsetenv("DUELO_QUEUE_SIZE")
				_ = os.Unsetenv("DUELO_WORKER_COUNT")
			}()

			convey.Convey("Then all components should work together", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()

				// Load configuration
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)

				// Create service (without starting to avoid logger dependency)
				svc := app.New(
					app.WithWorkerCount(cfg.WorkerCount),
					app.WithQueueSize(cfg.RescoreQueueSize),
					app.WithDedupeSize(cfg.DedupeSize),
				)
				convey.So(svc, convey.ShouldNotBeNil)

				// Create HTTP server
				server := api.NewServer(svc, svc, cfg.MaxLeaderboardLimit)
				convey.So(server, convey.ShouldNotBeNil)

				// Create HTTP mux and register routes
				mux := http.NewServeMux()
				server.Register(ctx, mux)
				swagger.Register(ctx, mux)

				// Stop service
				svc.Stop()
			})
		})
	})
}

func TestMainApplicationErrorHandling(t *testing.T) {
	convey.Convey("Given main application error handling", t, func() {
		convey.Convey("When testing invalid configuration", func() {
			_ = os.Setenv("DUELO_ADDR", "")
			defer func() { _ = os.Unsetenv("DUELO_ADDR") }()

			convey.Convey("Then configuration loading should fail", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When testing service creation with invalid options", func() {
			convey.Convey("Then service should handle invalid options gracefully", func() {
				svc := app.New(
					app.WithWorkerCount(0),
					app.WithQueueSize(0),
					app.WithDedupeSize(0),
				)
				convey.So(svc, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestMainRatingConfiguration(t *testing.T) {
	convey.Convey("Given a config with non-default K-factor tiers", t, func() {
		_ = os.Setenv("DUELO_K_FACTOR_LOW", "40")
		_ = os.Setenv("DUELO_K_FACTOR_MEDIUM", "20")
		_ = os.Setenv("DUELO_K_FACTOR_HIGH", "8")
		defer func() {
			_ = os.Unsetenv("DUELO_K_FACTOR_LOW")
			_ = os.Unsetenv("DUELO_K_FACTOR_MEDIUM")
			_ = os.Unsetenv("DUELO_K_FACTOR_HIGH")
		}()

		cfg, err := config.Load(context.Background())
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When building the updater the way the binary does", func() {
			updater := rating.NewUpdater(
				rating.WithKFactors(cfg.KFactorHigh, cfg.KFactorMedium, cfg.KFactorLow),
				rating.WithConfidenceThresholds(cfg.ConfidenceMedium, cfg.ConfidenceHigh),
			)

			convey.Convey("Then a zero-confidence match moves by the configured low-confidence K", func() {
				res := updater.Update(1500, 1500, true, 0, 0)
				convey.So(res.NewRatingA, convey.ShouldAlmostEqual, 1520, 0.001)
				convey.So(res.NewRatingB, convey.ShouldAlmostEqual, 1480, 0.001)
			})

			convey.Convey("Then a settled match moves by the configured high-confidence K", func() {
				res := updater.Update(1500, 1500, true, 0.9, 0.9)
				convey.So(res.NewRatingA, convey.ShouldAlmostEqual, 1504, 0.001)
				convey.So(res.NewRatingB, convey.ShouldAlmostEqual, 1496, 0.001)
			})
		})
	})
}
