package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should use the default refresh interval", func() {
				So(manager, ShouldNotBeNil)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When reading the global refresh interval", func() {
			Convey("Then it should be the global manager's default", func() {
				So(RefreshInterval(), ShouldEqual, defaultRefreshInterval)
				So(RefreshInterval(), ShouldEqual, globalManager.RefreshInterval())
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("ledger"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithRefreshInterval(5*time.Second),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.killsCredited.Inc()

			Convey("Then metric names should carry the namespace and subsystem", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_ledger_kills_credited_total"], ShouldBeTrue)
				So(manager.RefreshInterval(), ShouldEqual, 5*time.Second)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording combat metrics", func() {
			before := testutil.ToFloat64(globalManager.killsCredited)
			RecordKill()
			RecordKill()

			Convey("Then the kill counter should advance", func() {
				So(testutil.ToFloat64(globalManager.killsCredited), ShouldEqual, before+2)
			})
		})

		Convey("When recording deaths", func() {
			credited := testutil.ToFloat64(globalManager.deaths.WithLabelValues("true"))
			uncredited := testutil.ToFloat64(globalManager.deaths.WithLabelValues("false"))
			RecordDeath(true)
			RecordDeath(false)
			RecordDeath(false)

			Convey("Then each label should be counted separately", func() {
				So(testutil.ToFloat64(globalManager.deaths.WithLabelValues("true")), ShouldEqual, credited+1)
				So(testutil.ToFloat64(globalManager.deaths.WithLabelValues("false")), ShouldEqual, uncredited+2)
			})
		})

		Convey("When recording a sweep", func() {
			before := testutil.ToFloat64(globalManager.damageRecordsSwept)
			RecordSweep(3, 2*time.Millisecond)
			UpdateDamageRecords(7)

			Convey("Then the swept counter and gauge should reflect it", func() {
				So(testutil.ToFloat64(globalManager.damageRecordsSwept), ShouldEqual, before+3)
				So(testutil.ToFloat64(globalManager.damageRecords), ShouldEqual, float64(7))
			})
		})

		Convey("When recording the remaining metrics", func() {
			Convey("Then none of them should panic", func() {
				So(func() {
					RecordEventReceived("damage")
					RecordEventDuplicate()
					RecordEventRejected("invalid")
					RecordDamage()
					UpdateOnlinePlayers(4)
					UpdatePlaceholdersRegistered(30)
					RecordPlaceholderExpansion("replaced")
					RecordPlaceholderDuplicate()
					UpdateQueueSize(10)
					UpdateQueueCapacity(100)
					RecordQueueEnqueue()
					RecordQueueDequeue()
					RecordQueueEnqueueError()
					RecordWorkerProcessingLatency(1.5)
					RecordWorkerError()
					RecordHTTPRequest("events", "POST", "202", 0.4)
					RecordErrorByComponent("queue", "full")
					UpdateSystemMemoryUsage(1 << 20)
					UpdateSystemGoroutineCount(12)
					RecordSystemGCPauseTime(0.2)
				}, ShouldNotPanic)
			})
		})

		Convey("When gathering from the custom registry", func() {
			RecordKill()
			families, err := GetRegistry().Gather()

			Convey("Then papi metrics should be present", func() {
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})
	})
}
