package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/datesync/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("DATESYNC_ADDR", ":8080")
			_ = os.Setenv("DATESYNC_QUEUE_SIZE", "64")
			_ = os.Setenv("DATESYNC_WORKER_COUNT", "3")
			_ = os.Setenv("DATESYNC_TIMEZONE", "Europe/Berlin")
			_ = os.Setenv("DATESYNC_METRICS_NAMESPACE", "acme")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.Timezone, convey.ShouldEqual, "Europe/Berlin")
				convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "acme")
				convey.So(cfg.MetricsSubsystem, convey.ShouldEqual, "matcher")
			})
		})

		convey.Convey("When a YAML file is given and env overrides part of it", func() {
			path := filepath.Join(t.TempDir(), "datesync.yaml")
			body := "addr: \":7000\"\nmax_suggestions: 3\nsync_schedule: \"\"\n"
			convey.So(os.WriteFile(path, []byte(body), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("DATESYNC_CONFIG", path)
			_ = os.Setenv("DATESYNC_MAX_SUGGESTIONS", "5")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env wins over the file and the file wins over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7000")
				convey.So(cfg.MaxSuggestions, convey.ShouldEqual, 5)
				convey.So(cfg.SyncSchedule, convey.ShouldEqual, "")
			})
		})

		convey.Convey("When a dotenv file is given", func() {
			path := filepath.Join(t.TempDir(), ".env")
			body := "DATESYNC_MEMO_SIZE=32\nDATESYNC_ADDR=:6000\n"
			convey.So(os.WriteFile(path, []byte(body), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("DATESYNC_ENV_FILE", path)
			_ = os.Setenv("DATESYNC_ADDR", ":8080")

			cfg, err := config.Load(ctx)

			convey.Convey("Then its values apply but the process environment wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.MemoSize, convey.ShouldEqual, 32)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			})
		})

		convey.Convey("When the dotenv file does not exist", func() {
			_ = os.Setenv("DATESYNC_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

			_, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("DATESYNC_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the environment carries an invalid value", func() {
			_ = os.Setenv("DATESYNC_TIMEZONE", "Nowhere/Land")

			_, err := config.Load(ctx)

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, k := range []string{
		"DATESYNC_CONFIG", "DATESYNC_ADDR", "DATESYNC_QUEUE_SIZE", "DATESYNC_WORKER_COUNT",
		"DATESYNC_TIMEZONE", "DATESYNC_MAX_SUGGESTIONS", "DATESYNC_ENV_FILE", "DATESYNC_MEMO_SIZE",
		"DATESYNC_METRICS_NAMESPACE",
	} {
		_ = os.Unsetenv(k)
	}
}
