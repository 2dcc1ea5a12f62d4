// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New builds a Config with defaults; Load layers a file and env on top.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/okian/posturai/internal/domain/model"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr" validate:"required"`

	// DefaultMode is used by POST /sessions when the body names no mode.
	DefaultMode string `koanf:"default_mode" validate:"oneof=desk squat"`

	// VisibilityThreshold is the minimum landmark visibility a rule accepts.
	VisibilityThreshold float64 `koanf:"visibility_threshold" validate:"gte=0,lte=1"`

	// AssumedFPS converts frame counts to session duration.
	AssumedFPS int `koanf:"assumed_fps" validate:"gte=1"`

	// QueueSize bounds the async frame queue.
	QueueSize int `koanf:"queue_size" validate:"gte=1"`

	// WorkerCount sets the number of async frame workers.
	WorkerCount int `koanf:"worker_count" validate:"gte=1"`

	// DedupeSize sets the size of the async frame deduplication cache.
	DedupeSize int `koanf:"dedupe_size" validate:"gte=1"`

	// MaxHistoryLimit caps GET /history?limit.
	MaxHistoryLimit int `koanf:"max_history_limit" validate:"gte=1"`

	// HistorySize bounds the number of retained session summaries.
	HistorySize int `koanf:"history_size" validate:"gte=1"`

	MQTTEnabled     bool           `koanf:"mqtt_enabled"`
	MQTTBroker      string         `koanf:"mqtt_broker" validate:"required_if=MQTTEnabled true"`
	MQTTClientID    string         `koanf:"mqtt_client_id"`
	MQTTTopicPrefix string         `koanf:"mqtt_topic_prefix" validate:"required"`
	MQTTQoS         map[string]int `koanf:"mqtt_qos" validate:"dive,gte=0,lte=2"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		DefaultMode:         "desk",
		VisibilityThreshold: 0.5,
		AssumedFPS:          10,
		QueueSize:           1024,
		WorkerCount:         1,
		DedupeSize:          100_000,
		MaxHistoryLimit:     100,
		HistorySize:         1000,
		MQTTBroker:          "localhost:1883",
		MQTTClientID:        "posturai",
		MQTTTopicPrefix:     "posturai/violations",
		MQTTQoS: map[string]int{
			"knee_over_toe": 1,
			"back_angle":    1,
		},
	}
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Mode returns DefaultMode as a model.Mode.
func (c *Config) Mode() model.Mode {
	m, err := model.ParseMode(c.DefaultMode)
	if err != nil {
		return model.Desk
	}
	return m
}
