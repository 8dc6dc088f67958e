package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/papi/internal/config"
	"github.com/okian/papi/pkg/logger"
	"github.com/okian/papi/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smartystreets/goconvey/convey"
)

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	return w
}

func TestMainWiring(t *testing.T) {
	convey.Convey("Given a plugin and handler built from the default config", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)
		cfg.CombatTimeout = 1.5
		p := newPlugin(cfg, logger.Nop())
		convey.So(p.Start(ctx), convey.ShouldBeNil)
		h := newHandler(cfg, p)

		convey.Convey("When a fight is posted through the API", func() {
			ts := time.Now().UTC().Format(time.RFC3339)
			events := []string{
				`{"event_id":"1","kind":"join","player":{"name":"Steve"},"ts":"` + ts + `"}`,
				`{"event_id":"2","kind":"join","player":{"name":"Alex"},"ts":"` + ts + `"}`,
				`{"event_id":"3","kind":"damage","victim":"Alex","attacker":"Steve","ts":"` + ts + `"}`,
				`{"event_id":"4","kind":"death","victim":"Alex","ts":"` + ts + `"}`,
			}
			for _, e := range events {
				convey.So(post(t, h, "/events", e).Code, convey.ShouldEqual, http.StatusAccepted)
			}
			p.Stop()

			convey.Convey("Then the kill should be visible to placeholders", func() {
				w := post(t, h, "/papi/parse", `{"target":"Steve","text":"{kills}/{killstreak} {combat_missing}"}`)
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				var body map[string]string
				convey.So(json.Unmarshal(w.Body.Bytes(), &body), convey.ShouldBeNil)
				convey.So(body["text"], convey.ShouldEqual, "1/1 {combat_missing}")
			})

			convey.Convey("Then the configured timeout should be reported", func() {
				convey.So(p.GetStats()["combatTimeoutSeconds"], convey.ShouldEqual, 1.5)
			})
		})

		convey.Convey("When the API docs are requested", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.yaml", http.NoBody))

			convey.Convey("Then the OpenAPI document should be served", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "/papi/parse")
			})
		})

		convey.Reset(p.Stop)
	})
}

func TestUpdateSystemMetrics(t *testing.T) {
	convey.Convey("When system metrics are refreshed", t, func() {
		updateSystemMetrics()

		convey.Convey("Then the goroutine gauge should be set", func() {
			n, err := testutil.GatherAndCount(metrics.GetRegistry(), "papi_plugin_system_goroutine_count")
			convey.So(err, convey.ShouldBeNil)
			convey.So(n, convey.ShouldEqual, 1)
		})
	})
}
