// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/posturai/internal/adapters/mq/queue"
	"github.com/okian/posturai/internal/adapters/mq/worker"
	"github.com/okian/posturai/internal/adapters/repository"
	"github.com/okian/posturai/internal/domain/dedupe"
	"github.com/okian/posturai/internal/domain/model"
	"github.com/okian/posturai/internal/domain/rules"
	"github.com/okian/posturai/internal/stream"
	"github.com/okian/posturai/pkg/logger"
	"github.com/okian/posturai/pkg/metrics"
)

// Service owns live sessions, the async frame pipeline and the history store.
type Service struct {
	mu sync.RWMutex

	sessions map[string]*stream.Controller
	history  repository.Store
	deduper  dedupe.Deduper
	frames   *queue.InMemoryQueue
	pool     *worker.Pool
	engine   *rules.Engine
	sink     stream.Sink

	workerCount int
	queueSize   int
	dedupeSize  int
	historySize int
	fps         int
	visibility  float64
	defaultMode model.Mode
	now         func() time.Time

	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		sessions:    make(map[string]*stream.Controller),
		workerCount: 1,
		queueSize:   1024,
		dedupeSize:  100_000,
		historySize: 1000,
		fps:         stream.DefaultAssumedFPS,
		visibility:  model.DefaultVisibilityThreshold,
		defaultMode: model.Desk,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.GetOrNop().Named("service")
	}

	s.logger.Info(ctx, "starting posture service...")

	s.engine = rules.NewEngine(
		rules.WithVisibilityThreshold(s.visibility),
		rules.WithObserver(metricsObserver{}),
	)
	s.history = repository.NewHistoryStore(repository.WithCapacity(s.historySize))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.frames = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.pool = worker.NewPool(s.workerCount, s.frames, worker.ProcessorFunc(s.processQueued))
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "posture service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Float64("visibilityThreshold", s.visibility),
	)
	return nil
}

// Stop closes the frame queue to new frames, waits for the workers to
// evaluate what is already queued and shuts them down.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	pool, cancel := s.pool, s.cancel
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping posture service...")

	// Workers take the read lock while processing; the write lock is not held here.
	err := pool.Shutdown(ctx)
	cancel()

	s.logger.Info(ctx, "posture service stopped")
	return err
}

// Started reports whether Start has been called without a matching Stop.
func (s *Service) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// DefaultMode is the mode used when a client names none.
func (s *Service) DefaultMode() model.Mode { return s.defaultMode }

// CreateSession creates and starts a session.
func (s *Service) CreateSession(ctx context.Context, mode model.Mode) (stream.Info, error) {
	if !mode.Valid() {
		return stream.Info{}, fmt.Errorf("create session: %w: %d", model.ErrUnknownMode, int(mode))
	}

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return stream.Info{}, ErrNotStarted
	}
	ctrl := stream.New(mode,
		stream.WithEngine(s.engine),
		stream.WithSink(stream.SinkFunc(s.emit)),
		stream.WithObserver(metricsObserver{}),
		stream.WithAssumedFPS(s.fps),
		stream.WithClock(s.now),
		stream.WithLogger(s.logger),
	)
	if err := ctrl.Start(); err != nil {
		s.mu.Unlock()
		return stream.Info{}, fmt.Errorf("create session: %w", err)
	}
	s.sessions[ctrl.ID()] = ctrl
	s.mu.Unlock()

	metrics.RecordSessionStarted(mode.String())
	s.logger.Info(ctx, "session started",
		logger.String("session", ctrl.ID()),
		logger.String("mode", mode.String()))
	return ctrl.Info(), nil
}

func (s *Service) session(id string) (*stream.Controller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.lookup(id)
}

// lookup resolves a session regardless of the started flag. Callers hold s.mu.
func (s *Service) lookup(id string) (*stream.Controller, error) {
	ctrl, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return ctrl, nil
}

// Session returns a snapshot of a live session.
func (s *Service) Session(_ context.Context, id string) (stream.Info, error) {
	ctrl, err := s.session(id)
	if err != nil {
		return stream.Info{}, err
	}
	return ctrl.Info(), nil
}

// Sessions returns snapshots of every live session.
func (s *Service) Sessions(_ context.Context) []stream.Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]stream.Info, 0, len(s.sessions))
	for _, ctrl := range s.sessions {
		out = append(out, ctrl.Info())
	}
	return out
}

// Pause pauses a session.
func (s *Service) Pause(_ context.Context, id string) (stream.Info, error) {
	ctrl, err := s.session(id)
	if err != nil {
		return stream.Info{}, err
	}
	if err := ctrl.Pause(); err != nil {
		return stream.Info{}, err
	}
	return ctrl.Info(), nil
}

// Resume resumes a paused session.
func (s *Service) Resume(_ context.Context, id string) (stream.Info, error) {
	ctrl, err := s.session(id)
	if err != nil {
		return stream.Info{}, err
	}
	if err := ctrl.Resume(); err != nil {
		return stream.Info{}, err
	}
	return ctrl.Info(), nil
}

// EndSession ends a session, appends its summary to history and forgets it.
func (s *Service) EndSession(ctx context.Context, id string) (model.SessionSummary, error) {
	ctrl, err := s.session(id)
	if err != nil {
		return model.SessionSummary{}, err
	}
	summary, err := ctrl.End()
	if err != nil {
		return model.SessionSummary{}, err
	}

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	if err := s.history.Append(ctx, summary); err != nil {
		s.logger.Error(ctx, "failed to store session summary",
			logger.String("session", id),
			logger.Error(err))
	}
	metrics.RecordSessionEnded(summary.Mode.String(), summary.Stats.AccuracyPercent)
	s.logger.Info(ctx, "session ended",
		logger.String("session", id),
		logger.Int("frames", summary.Stats.TotalFrames),
		logger.Int("accuracy", summary.Stats.AccuracyPercent))
	return summary, nil
}

// ProcessFrame evaluates one frame synchronously.
func (s *Service) ProcessFrame(ctx context.Context, id string, landmarks []model.Landmark) (stream.FrameResult, error) {
	ctrl, err := s.session(id)
	if err != nil {
		return stream.FrameResult{}, err
	}
	return ctrl.Process(ctx, landmarks)
}

// EnqueueFrame accepts a frame for async evaluation. It reports true when
// the frame id was already seen for this session; duplicates are not queued.
func (s *Service) EnqueueFrame(ctx context.Context, id, frameID string, landmarks []model.Landmark) (bool, error) {
	if _, err := s.session(id); err != nil {
		return false, err
	}

	key := dedupe.Key(id, frameID)
	if s.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordFrameDuplicate()
		s.logger.Debug(ctx, "duplicate frame detected, skipping",
			logger.String("session", id),
			logger.String("frame", frameID))
		return true, nil
	}

	err := s.frames.Enqueue(ctx, queue.Frame{
		SessionID:  id,
		FrameID:    frameID,
		Landmarks:  landmarks,
		ReceivedAt: s.now(),
	})
	if err != nil {
		// Allow the client to retry the same frame id.
		s.deduper.Unrecord(ctx, key)
		if errors.Is(err, queue.ErrFull) {
			return false, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return false, err
	}
	return false, nil
}

// processQueued runs on the worker pool. Frames queued before Stop are still
// evaluated while the pool drains, so it skips the started check.
func (s *Service) processQueued(ctx context.Context, f queue.Frame) error { //nolint:gocritic // hugeParam
	s.mu.RLock()
	ctrl, err := s.lookup(f.SessionID)
	s.mu.RUnlock()
	if err != nil {
		return err
	}
	_, err = ctrl.Process(ctx, f.Landmarks)
	return err
}

func (s *Service) emit(ctx context.Context, ev stream.Event) error { //nolint:gocritic // hugeParam
	s.history.RecordViolation(ctx, ev.Violation.Type)
	if s.sink == nil {
		return nil
	}
	return s.sink.Emit(ctx, ev)
}

// History returns up to limit ended-session summaries, most recent first.
func (s *Service) History(ctx context.Context, limit int) ([]model.SessionSummary, error) {
	if !s.Started() {
		return nil, ErrNotStarted
	}
	return s.history.Recent(ctx, limit)
}

// Summary returns one ended-session summary.
func (s *Service) Summary(ctx context.Context, id string) (model.SessionSummary, error) {
	if !s.Started() {
		return model.SessionSummary{}, ErrNotStarted
	}
	return s.history.Get(ctx, id)
}

// Insights aggregates the retained history.
func (s *Service) Insights(ctx context.Context) (repository.Insights, error) {
	if !s.Started() {
		return repository.Insights{}, ErrNotStarted
	}
	return s.history.Insights(ctx), nil
}

// Rules returns the rule catalog for mode.
func (s *Service) Rules(_ context.Context, mode model.Mode) []rules.Description {
	return rules.Catalog(mode)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":             s.started,
		"workerCount":         s.workerCount,
		"queueSize":           s.queueSize,
		"dedupeSize":          s.dedupeSize,
		"visibilityThreshold": s.visibility,
		"assumedFps":          s.fps,
	}

	if s.started {
		stats["activeSessions"] = len(s.sessions)
		stats["queueLength"] = s.frames.Len()
		stats["dedupeEntries"] = s.deduper.Size()
		stats["historySessions"] = s.history.Count(ctx)
	}
	return stats
}
