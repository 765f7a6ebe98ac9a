package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry and custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should register its collectors there", func() {
				So(manager, ShouldNotBeNil)
				manager.gamesIngested.Add(3)
				So(testutil.ToFloat64(manager.gamesIngested), ShouldEqual, 3)

				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global recorders", t, func() {
		Convey("When recording pipeline counters", func() {
			before := testutil.ToFloat64(globalManager.gamesDuplicate)
			RecordDuplicateGame()
			RecordGamesIngested(10)
			RecordImputedValue("pts_paint")
			RecordDegenerateStatistic("zero_std")
			RecordStageDuration("aggregate", 12)
			RecordPipelineRun("success")
			UpdateLastSuccess(1700000000)
			UpdateTeamSeasons(30)

			Convey("Then the values should be observable", func() {
				So(testutil.ToFloat64(globalManager.gamesDuplicate), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.teamSeasons), ShouldEqual, 30)
				So(testutil.ToFloat64(globalManager.imputedValues.WithLabelValues("pts_paint")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording scoring and evaluation", func() {
			So(func() {
				RecordScorerLatency("xgboost", 3)
				RecordScorerError("xgboost", "range")
				UpdateChampionAccuracy(0.45, 20)
				RecordHTTPRequest("/predictions", "GET", "200")
				RecordHTTPRequestDuration("/predictions", "GET", "200", 1)
			}, ShouldNotPanic)

			So(testutil.ToFloat64(globalManager.championAccuracy), ShouldEqual, 0.45)
			So(testutil.ToFloat64(globalManager.seasonsEvaluated), ShouldEqual, 20)
		})

		Convey("When recording refresh activity", func() {
			before := testutil.ToFloat64(globalManager.refreshRequests.WithLabelValues("queued"))
			RecordRefresh("queued")
			UpdateRefreshQueueSize(2)

			So(testutil.ToFloat64(globalManager.refreshRequests.WithLabelValues("queued")), ShouldEqual, before+1)
			So(testutil.ToFloat64(globalManager.refreshQueue), ShouldEqual, 2)
		})

		Convey("When updating system gauges", func() {
			UpdateSystemMemoryUsage(1024)
			UpdateSystemGoroutineCount(12)
			UpdateSystemGCPause(0.5)

			So(testutil.ToFloat64(globalManager.memoryBytes), ShouldEqual, 1024)
			So(testutil.ToFloat64(globalManager.goroutines), ShouldEqual, 12)
			So(testutil.ToFloat64(globalManager.gcPause), ShouldEqual, 0.5)
		})

		Convey("Then the registry should be exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
