package service

import (
	"time"

	"github.com/okian/posturai/internal/domain/model"
	"github.com/okian/posturai/internal/stream"
	"github.com/okian/posturai/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of async frame workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the async frame queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the async frame deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithHistorySize bounds the number of retained session summaries.
func WithHistorySize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.historySize = size
		}
	}
}

// WithAssumedFPS sets the frame rate used for session durations.
func WithAssumedFPS(fps int) Option {
	return func(s *Service) {
		if fps > 0 {
			s.fps = fps
		}
	}
}

// WithVisibilityThreshold sets the landmark visibility threshold for rules.
func WithVisibilityThreshold(t float64) Option {
	return func(s *Service) {
		if t >= 0 && t <= 1 {
			s.visibility = t
		}
	}
}

// WithDefaultMode sets the mode used when a session is created without one.
func WithDefaultMode(m model.Mode) Option {
	return func(s *Service) {
		if m.Valid() {
			s.defaultMode = m
		}
	}
}

// WithSink sets where violations are published, in addition to the history tally.
func WithSink(sink stream.Sink) Option {
	return func(s *Service) { s.sink = sink }
}

// WithClock overrides the session clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
