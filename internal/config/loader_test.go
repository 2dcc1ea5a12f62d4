package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/posturai/internal/config"
	"github.com/okian/posturai/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"POSTURAI_CONFIG",
	"POSTURAI_ADDR",
	"POSTURAI_QUEUE_SIZE",
	"POSTURAI_WORKER_COUNT",
	"POSTURAI_VISIBILITY_THRESHOLD",
	"POSTURAI_ASSUMED_FPS",
	"POSTURAI_DEFAULT_MODE",
	"POSTURAI_LOG_FORMAT",
	"POSTURAI_MQTT_ENABLED",
	"POSTURAI_MQTT_BROKER",
}

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.VisibilityThreshold, convey.ShouldEqual, 0.5)
			convey.So(cfg.AssumedFPS, convey.ShouldEqual, 10)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 1)
			convey.So(cfg.MQTTEnabled, convey.ShouldBeFalse)
			convey.So(cfg.Mode(), convey.ShouldEqual, model.Desk)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars(t)

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then defaults are returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
				convey.So(cfg.MQTTQoS["knee_over_toe"], convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When loading with environment variables", func() {
			t.Setenv("POSTURAI_ADDR", ":8080")
			t.Setenv("POSTURAI_QUEUE_SIZE", "64")
			t.Setenv("POSTURAI_VISIBILITY_THRESHOLD", "0.6")
			t.Setenv("POSTURAI_DEFAULT_MODE", "squat")
			t.Setenv("POSTURAI_MQTT_ENABLED", "true")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env overrides defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.VisibilityThreshold, convey.ShouldEqual, 0.6)
				convey.So(cfg.Mode(), convey.ShouldEqual, model.Squat)
				convey.So(cfg.MQTTEnabled, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading with a YAML file and env", func() {
			path := writeConfigFile(t, `
addr: ":9090"
worker_count: 4
assumed_fps: 30
mqtt_qos:
  squat_depth: 2
`)
			t.Setenv("POSTURAI_CONFIG", path)
			t.Setenv("POSTURAI_WORKER_COUNT", "8")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env wins over file and file over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 8)
				convey.So(cfg.AssumedFPS, convey.ShouldEqual, 30)
				convey.So(cfg.MQTTQoS["squat_depth"], convey.ShouldEqual, 2)
				convey.So(cfg.HistorySize, convey.ShouldEqual, 1000)
			})
		})

		convey.Convey("When the file is invalid YAML", func() {
			t.Setenv("POSTURAI_CONFIG", writeConfigFile(t, `invalid: yaml: content: [`))

			cfg, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the file does not exist", func() {
			t.Setenv("POSTURAI_CONFIG", "/non/existent/file.yaml")

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When a numeric variable does not parse", func() {
			t.Setenv("POSTURAI_QUEUE_SIZE", "not_a_number")

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When a value fails validation", func() {
			cases := map[string]string{
				"POSTURAI_ADDR":                 "",
				"POSTURAI_VISIBILITY_THRESHOLD": "1.5",
				"POSTURAI_ASSUMED_FPS":          "0",
				"POSTURAI_DEFAULT_MODE":         "yoga",
				"POSTURAI_LOG_FORMAT":           "xml",
			}
			for key, val := range cases {
				clearConfigEnvVars(t)
				t.Setenv(key, val)

				_, err := config.Load(ctx)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			}
		})

		convey.Convey("When MQTT is enabled without a broker", func() {
			t.Setenv("POSTURAI_MQTT_ENABLED", "true")
			t.Setenv("POSTURAI_MQTT_BROKER", "")

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func clearConfigEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range configEnvVars {
		if _, ok := os.LookupEnv(key); ok {
			t.Setenv(key, "")
			_ = os.Unsetenv(key)
		}
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
