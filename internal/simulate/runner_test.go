package simulate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/papi/internal/adapters/http/api"
	"github.com/okian/papi/internal/plugin"
	"github.com/okian/papi/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// newService starts a plugin behind an httptest server.
func newService(t *testing.T, opts ...plugin.Option) (*httptest.Server, *plugin.Plugin) {
	t.Helper()
	p := plugin.New(append([]plugin.Option{plugin.WithLogger(logger.Nop())}, opts...)...)
	So(p.Start(context.Background()), ShouldBeNil)
	mux := http.NewServeMux()
	api.NewServer(p, 100).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		p.Stop()
	})
	return srv, p
}

func TestRun(t *testing.T) {
	Convey("Given a running service", t, func() {
		srv, p := newService(t)
		ctx := context.Background()

		Convey("When a simulation runs against it", func() {
			stats, err := Run(ctx, Config{
				BaseURL:    srv.URL,
				Players:    8,
				Rounds:     6,
				Workers:    4,
				Duplicates: 10,
				Seed:       42,
				Prefix:     "run",
				Settle:     10 * time.Second,
				Logger:     logger.Nop(),
			})

			Convey("Then every player's counters should match", func() {
				So(err, ShouldBeNil)
				So(stats.Mismatches, ShouldEqual, 0)
				So(stats.PlayersVerified, ShouldEqual, 8)
				So(stats.Fights, ShouldEqual, 24)
				So(stats.Kills, ShouldEqual, 24)
				So(stats.EventsAccepted, ShouldEqual, stats.EventsGenerated)
				So(stats.EventsDuplicate, ShouldEqual, 10)
				So(stats.DuplicatesMissed, ShouldEqual, 0)
				So(stats.EventsFailed, ShouldEqual, 0)
			})

			Convey("Then the service should report the kills", func() {
				total := 0
				for _, e := range p.Leaderboard(100) {
					total += e.Kills
				}
				So(total, ShouldEqual, 24)
			})
		})
	})
}

func TestRun_Backpressure(t *testing.T) {
	Convey("Given a service with a tiny queue", t, func() {
		srv, _ := newService(t, plugin.WithQueueSize(1))

		Convey("When a simulation runs against it", func() {
			stats, err := Run(context.Background(), Config{
				BaseURL: srv.URL,
				Players: 6,
				Rounds:  4,
				Workers: 6,
				Seed:    7,
				Prefix:  "bp",
				Logger:  logger.Nop(),
			})

			Convey("Then refused events should be retried until accepted", func() {
				So(err, ShouldBeNil)
				So(stats.EventsAccepted, ShouldEqual, stats.EventsGenerated)
				So(stats.Mismatches, ShouldEqual, 0)
			})
		})
	})
}

func TestRun_Unreachable(t *testing.T) {
	Convey("Given a service that is not running", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()

		Convey("When a simulation starts", func() {
			_, err := Run(context.Background(), Config{
				BaseURL: srv.URL,
				Timeout: time.Second,
				Logger:  logger.Nop(),
			})

			Convey("Then the health check should fail", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "health check")
			})
		})
	})
}
