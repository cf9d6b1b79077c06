package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	metrics "github.com/okian/duelo/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	Convey("Given a metrics manager on its own registry", t, func() {
		reg := prometheus.NewRegistry()
		m := metrics.NewManager(
			metrics.WithPrometheusRegistry(reg),
			metrics.WithNamespace("duelo_test"),
		)

		Convey("Then construction registers the metric families", func() {
			So(m, ShouldNotBeNil)
			families, err := reg.Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})

	Convey("Given the global helpers", t, func() {
		Convey("They tolerate being called at any time", func() {
			So(func() {
				metrics.RecordVoteApplied()
				metrics.RecordVoteDuplicate()
				metrics.RecordUpset()
				metrics.RecordSkip()
				metrics.RecordSelectionLatency(1.5)
				metrics.UpdateSelectionPoolSize(42)
				metrics.RecordSelectionFallback()
				metrics.UpdateRescoreQueueSize(7)
				metrics.RecordRescoreEnqueued()
				metrics.RecordStoreUpdateLatency(0.2)
				metrics.RecordHTTPRequest("pair", "GET", "200")
				metrics.UpdateSystemGoroutineCount(12)
			}, ShouldNotPanic)
		})

		Convey("The custom registry is exposed for the metrics handler", func() {
			So(metrics.GetRegistry(), ShouldNotBeNil)
		})
	})
}
