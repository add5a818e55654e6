package config_test

import (
	"context"
	"errors"
	"os"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/okian/drought/internal/config"
	"github.com/okian/drought/internal/domain/model"
	"github.com/okian/drought/internal/domain/season"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
				convey.So(cfg.Timescales, convey.ShouldResemble, []int{1, 3, 6, 9, 12})
				convey.So(cfg.Precision, convey.ShouldEqual, 2)
				convey.So(cfg.DurationUnit, convey.ShouldEqual, "steps")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("DROUGHT_ADDR", ":8080")
			_ = os.Setenv("DROUGHT_QUEUE_SIZE", "64")
			_ = os.Setenv("DROUGHT_WORKER_COUNT", "16")
			_ = os.Setenv("DROUGHT_DURATION_UNIT", "days")
			_ = os.Setenv("DROUGHT_SERVE", "true")
			_ = os.Setenv("DROUGHT_DIRECTION", "wet")
			_ = os.Setenv("DROUGHT_SEASON_ANCHOR", "onset")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.DurationUnit, convey.ShouldEqual, "days")
				convey.So(cfg.Serve, convey.ShouldBeTrue)
				convey.So(cfg.EventDirection(), convey.ShouldEqual, model.Wet)
				convey.So(cfg.SeasonPolicy().Anchor, convey.ShouldEqual, season.Onset)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
input_dir: /srv/totals
output_dir: /srv/results
timescales: [1, 3]
threshold_start: -1
threshold_stop: -2
threshold_step: 0.5
season_exclude_winter: false
schedule: "0 3 * * *"
shutdown_timeout: 30s
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("DROUGHT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.InputDir, convey.ShouldEqual, "/srv/totals")
				convey.So(cfg.OutputDir, convey.ShouldEqual, "/srv/results")
				convey.So(cfg.Timescales, convey.ShouldResemble, []int{1, 3})
				convey.So(cfg.SeasonExcludeWinter, convey.ShouldBeFalse)
				convey.So(cfg.Schedule, convey.ShouldEqual, "0 3 * * *")
				convey.So(cfg.ShutdownTimeout, convey.ShouldEqual, 30*time.Second)

				ladder, err := cfg.Thresholds()
				convey.So(err, convey.ShouldBeNil)
				convey.So(ladder, convey.ShouldResemble, []float64{-1, -1.5, -2})
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
queue_size: 300
worker_count: 24
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("DROUGHT_CONFIG", tmpFile)
			_ = os.Setenv("DROUGHT_ADDR", ":8080")
			_ = os.Setenv("DROUGHT_WORKER_COUNT", "32")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")   // env
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)  // file
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32) // env
				convey.So(cfg.Precision, convey.ShouldEqual, 2)    // default
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("DROUGHT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("DROUGHT_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("DROUGHT_QUEUE_SIZE", "invalid")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigLoaderValidation(t *testing.T) {
	convey.Convey("Given values that fail validation", t, func() {
		ctx := context.Background()

		cases := []struct {
			name string
			env  map[string]string
		}{
			{"zero workers", map[string]string{"DROUGHT_WORKER_COUNT": "0"}},
			{"negative queue", map[string]string{"DROUGHT_QUEUE_SIZE": "-100"}},
			{"unknown unit", map[string]string{"DROUGHT_DURATION_UNIT": "weeks"}},
			{"unknown level", map[string]string{"DROUGHT_LOG_LEVEL": "loud"}},
			{"unknown format", map[string]string{"DROUGHT_LOG_FORMAT": "xml"}},
			{"zero step", map[string]string{"DROUGHT_THRESHOLD_STEP": "0"}},
			{"bad schedule", map[string]string{"DROUGHT_SCHEDULE": "every tuesday"}},
			{"empty input dir", map[string]string{"DROUGHT_INPUT_DIR": ""}},
			{"serve without addr", map[string]string{"DROUGHT_SERVE": "true", "DROUGHT_ADDR": ""}},
			{"negative rate limit", map[string]string{"DROUGHT_RATE_LIMIT": "-1"}},
			{"unknown direction", map[string]string{"DROUGHT_DIRECTION": "sideways"}},
			{"unknown season anchor", map[string]string{"DROUGHT_SEASON_ANCHOR": "midpoint"}},
		}

		for _, tc := range cases {
			convey.Convey("When "+tc.name, func() {
				for k, v := range tc.env {
					_ = os.Setenv(k, v)
				}
				defer clearConfigEnvVars()

				cfg, err := config.Load(ctx)

				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		}

		convey.Convey("When an empty addr is set outside serve mode", func() {
			_ = os.Setenv("DROUGHT_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, "")
		})

		convey.Convey("When a descriptor schedule is used", func() {
			_ = os.Setenv("DROUGHT_SCHEDULE", "@every 6h")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Schedule, convey.ShouldEqual, "@every 6h")
		})
	})
}

func TestConfigLoaderCancelled(t *testing.T) {
	convey.Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := config.Load(ctx)
		convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
	})
}

// Helper functions.

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, config.EnvPrefix) {
			_ = os.Unsetenv(name)
		}
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "drought-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
