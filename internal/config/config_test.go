package config_test

import (
	"runtime"
	"testing"

	"github.com/okian/duelo/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.StorageDriver, convey.ShouldEqual, config.DriverMemory)
			convey.So(cfg.RescoreQueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 100_000)
			convey.So(cfg.UpsetThreshold, convey.ShouldEqual, 200)
			convey.So(cfg.KFactorLow, convey.ShouldEqual, 32)
			convey.So(cfg.KFactorMedium, convey.ShouldEqual, 24)
			convey.So(cfg.KFactorHigh, convey.ShouldEqual, 16)
			convey.So(cfg.WeightExposure+cfg.WeightWinRate+cfg.WeightRecency+cfg.WeightEngagement, convey.ShouldAlmostEqual, 1.0)
			convey.So(cfg.ExposureSaturation, convey.ShouldEqual, 50)
			convey.So(cfg.SessionHistoryLimit, convey.ShouldEqual, 200)
			convey.So(cfg.PoolCap, convey.ShouldEqual, 100)
			convey.So(cfg.RecencyLookback, convey.ShouldEqual, 30)
			convey.So(cfg.DiversityStrength, convey.ShouldEqual, 0.8)
		})
	})
}
