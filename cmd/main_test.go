package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/datesync/internal/config"
	"github.com/okian/datesync/pkg/logger"
	"github.com/okian/datesync/pkg/metrics"
)

func TestNewService(t *testing.T) {
	_ = logger.Init()
	convey.Convey("Given a configuration loaded from the environment", t, func() {
		_ = os.Setenv("DATESYNC_TIMEZONE", "Europe/Berlin")
		_ = os.Setenv("DATESYNC_WORKER_COUNT", "2")
		defer func() {
			_ = os.Unsetenv("DATESYNC_TIMEZONE")
			_ = os.Unsetenv("DATESYNC_WORKER_COUNT")
		}()

		cfg, err := config.Load(context.Background())
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When building the service", func() {
			svc, err := newService(cfg, logger.Get())

			convey.Convey("Then it carries the configured zone and sizes", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(svc.Location().String(), convey.ShouldEqual, "Europe/Berlin")
				stats := svc.GetStats()
				convey.So(stats["workerCount"], convey.ShouldEqual, 2)
				convey.So(stats["started"], convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the timezone is unknown", func() {
			cfg.Timezone = "Mars/Olympus_Mons"
			_, err := newService(cfg, logger.Get())

			convey.Convey("Then building fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestNewMux(t *testing.T) {
	_ = logger.Init()
	convey.Convey("Given a started service behind the full mux", t, func() {
		cfg := config.New()
		cfg.SyncSchedule = ""
		cfg.ICSCacheDir = t.TempDir()
		svc, err := newService(cfg, logger.Get())
		convey.So(err, convey.ShouldBeNil)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		mux := newMux(ctx, svc)
		get := func(path string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
			return w
		}

		convey.Convey("Then the landing page, docs and API all answer", func() {
			convey.So(get("/").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/api-docs").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/openapi.yaml").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/healthz").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/stats").Body.String(), convey.ShouldContainSubstring, `"started":true`)
		})

		convey.Convey("Then unknown users are reported as not found", func() {
			convey.So(get("/users/nobody/preferences").Code, convey.ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestRun(t *testing.T) {
	_ = logger.Init()
	convey.Convey("Given run with a free port", t, func() {
		cfg := config.New()
		cfg.Addr = "127.0.0.1:0"
		cfg.SyncSchedule = ""
		cfg.ICSCacheDir = t.TempDir()

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()

			convey.Convey("Then it shuts down cleanly", func() {
				convey.So(run(ctx, cfg, logger.Get()), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the address cannot be bound", func() {
			cfg.Addr = "256.0.0.1:1"

			convey.Convey("Then it returns the listen error", func() {
				convey.So(run(context.Background(), cfg, logger.Get()), convey.ShouldNotBeNil)
			})
		})
	})
}

func TestUpdateSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.So(updateSystemMetrics, convey.ShouldNotPanic)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
	})
}

func TestMetricsOptions(t *testing.T) {
	convey.Convey("Given a config naming the metrics", t, func() {
		cfg := config.New()
		cfg.MetricsNamespace = "acme"
		cfg.MetricsSubsystem = "dates"

		registry := prometheus.NewRegistry()
		metrics.NewManager(append(metricsOptions(cfg), metrics.WithPrometheusRegistry(registry))...)

		convey.Convey("Then collectors carry the configured prefix", func() {
			families, err := registry.Gather()
			convey.So(err, convey.ShouldBeNil)
			names := make([]string, 0, len(families))
			for _, f := range families {
				names = append(names, f.GetName())
			}
			convey.So(names, convey.ShouldContain, "acme_dates_memo_entries")
		})
	})
}
