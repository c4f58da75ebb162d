package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewManager(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(
			WithNamespace("test"),
			WithSubsystem("unit"),
			WithPrometheusRegistry(registry),
		)

		Convey("Then collectors use the configured names", func() {
			m.computations.WithLabelValues(StageWindows).Inc()
			families, err := registry.Gather()
			So(err, ShouldBeNil)

			names := make([]string, 0, len(families))
			for _, f := range families {
				names = append(names, f.GetName())
			}
			So(names, ShouldContain, "test_unit_computations_total")
		})

		Convey("Then empty options keep defaults", func() {
			d := NewManager(WithNamespace(""), WithSubsystem(""), WithPrometheusRegistry(prometheus.NewRegistry()))
			So(d.namespace, ShouldEqual, "datesync")
			So(d.subsystem, ShouldEqual, "matcher")
			So(d.histogramBuckets, ShouldResemble, latencyBuckets)
		})
	})
}

func TestConfigure(t *testing.T) {
	Convey("Given the global collectors rebuilt under a configured name", t, func() {
		Configure(WithNamespace("acme"), WithSubsystem("dates"))
		defer Configure()

		RecordMemoHit()
		families, err := GetRegistry().Gather()
		So(err, ShouldBeNil)

		names := make([]string, 0, len(families))
		for _, f := range families {
			names = append(names, f.GetName())
		}
		So(names, ShouldContain, "acme_dates_memo_hits_total")
		So(names, ShouldNotContain, "datesync_matcher_memo_hits_total")
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording computations", func() {
			before := testutil.ToFloat64(globalManager.computations.WithLabelValues(StageMutual))
			RecordComputation(StageMutual, 1.5)

			Convey("Then the stage counter increments", func() {
				So(testutil.ToFloat64(globalManager.computations.WithLabelValues(StageMutual)), ShouldEqual, before+1)
			})
		})

		Convey("When recording suggestions and errors", func() {
			beforeIdeal := testutil.ToFloat64(globalManager.suggestions.WithLabelValues("ideal"))
			beforeErr := testutil.ToFloat64(globalManager.computationErrors.WithLabelValues(StageWindows, "validation"))
			RecordSuggestion("ideal")
			RecordComputationError(StageWindows, "validation")

			Convey("Then the labelled counters increment", func() {
				So(testutil.ToFloat64(globalManager.suggestions.WithLabelValues("ideal")), ShouldEqual, beforeIdeal+1)
				So(testutil.ToFloat64(globalManager.computationErrors.WithLabelValues(StageWindows, "validation")), ShouldEqual, beforeErr+1)
			})
		})

		Convey("When updating queue gauges", func() {
			UpdateQueueCapacity(10)
			UpdateQueueSize(5, 10)

			Convey("Then size and utilization reflect the update", func() {
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 5)
				So(testutil.ToFloat64(globalManager.queueUtilization), ShouldEqual, 0.5)
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 10)
			})
		})

		Convey("When adjusting active workers", func() {
			before := testutil.ToFloat64(globalManager.workerActive)
			AddWorkerActive(1)
			AddWorkerActive(-1)

			Convey("Then the gauge returns to its previous value", func() {
				So(testutil.ToFloat64(globalManager.workerActive), ShouldEqual, before)
			})
		})

		Convey("When recording memo and sync activity", func() {
			hits := testutil.ToFloat64(globalManager.memoHits)
			RecordMemoHit()
			RecordMemoMiss()
			UpdateMemoEntries(3)
			RecordSyncJob("ok", 12)
			RecordSyncError("fetch")

			Convey("Then the collectors are updated", func() {
				So(testutil.ToFloat64(globalManager.memoHits), ShouldEqual, hits+1)
				So(testutil.ToFloat64(globalManager.memoEntries), ShouldEqual, 3)
			})
		})

		Convey("Then the registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
