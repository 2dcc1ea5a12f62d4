// Package stream owns the lifecycle of a posture session: it feeds frames
// through keypoint extraction and rule evaluation, accumulates statistics
// and forwards violations to a Sink.
package stream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/posturai/internal/domain/keypoints"
	"github.com/okian/posturai/internal/domain/model"
	"github.com/okian/posturai/internal/domain/rules"
	"github.com/okian/posturai/internal/domain/session"
	"github.com/okian/posturai/pkg/logger"
)

// DefaultAssumedFPS is the frame rate used to derive session duration.
const DefaultAssumedFPS = 10

// State is the lifecycle state of a session.
type State int

// Session states.
const (
	Idle State = iota
	Active
	Paused
	Ended
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Paused:
		return "paused"
	case Ended:
		return "ended"
	}
	return "unknown"
}

// MarshalText encodes the state as its name.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	for st := Idle; st <= Ended; st++ {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", b)
}

// Event is a single violation forwarded to a Sink.
type Event struct {
	SessionID string          `json:"session_id"`
	Mode      model.Mode      `json:"mode"`
	Seq       uint64          `json:"seq"`
	Violation model.Violation `json:"violation"`
}

// Sink receives violations in the order they were produced.
type Sink interface {
	Emit(ctx context.Context, ev Event) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(ctx context.Context, ev Event) error

// Emit calls f.
func (f SinkFunc) Emit(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Observer receives per-frame outcomes, typically to update metrics.
type Observer interface {
	FrameEvaluated(mode model.Mode, violations []model.Violation, elapsed time.Duration)
	FrameDropped(mode model.Mode, reason string)
	SinkFailed(mode model.Mode)
}

// Drop reasons reported to an Observer.
const (
	DropPaused      = "paused"
	DropUnavailable = "unavailable"
)

// FrameResult is the outcome of one processed frame.
type FrameResult struct {
	Seq        uint64             `json:"seq"`
	Violations []model.Violation  `json:"violations"`
	Stats      model.SessionStats `json:"stats"`
	// Skipped is set when the frame could not be evaluated and was not counted.
	Skipped bool `json:"skipped"`
}

// Info is a point-in-time view of a session.
type Info struct {
	ID                  string             `json:"id"`
	Mode                model.Mode         `json:"mode"`
	State               State              `json:"state"`
	Stats               model.SessionStats `json:"stats"`
	LastFrameViolations int                `json:"last_frame_violations"`
	StartedAt           time.Time          `json:"started_at"`
}

// Controller is a single posture session. All methods are safe for
// concurrent use; frames are evaluated one at a time.
type Controller struct {
	mu sync.Mutex

	id     string
	mode   model.Mode
	state  State
	seq    uint64
	engine *rules.Engine
	acc    *session.Accumulator

	lastViolations int
	startedAt      time.Time

	sink     Sink
	observer Observer
	fps      int
	now      func() time.Time
	logger   logger.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithID sets the session identifier. A random UUID is used otherwise.
func WithID(id string) Option {
	return func(c *Controller) {
		if id != "" {
			c.id = id
		}
	}
}

// WithEngine sets the rule engine.
func WithEngine(e *rules.Engine) Option {
	return func(c *Controller) {
		if e != nil {
			c.engine = e
		}
	}
}

// WithSink sets where violations are forwarded.
func WithSink(s Sink) Option {
	return func(c *Controller) { c.sink = s }
}

// WithObserver sets the frame outcome observer.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// WithAssumedFPS sets the frame rate used to derive session duration.
func WithAssumedFPS(fps int) Option {
	return func(c *Controller) {
		if fps > 0 {
			c.fps = fps
		}
	}
}

// WithClock overrides the wall clock used for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates an Idle session for mode. The mode cannot change afterwards.
func New(mode model.Mode, opts ...Option) *Controller {
	c := &Controller{
		id:     uuid.NewString(),
		mode:   mode,
		state:  Idle,
		engine: rules.NewEngine(),
		acc:    session.NewAccumulator(),
		fps:    DefaultAssumedFPS,
		now:    time.Now,
		logger: logger.GetOrNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the session identifier.
func (c *Controller) ID() string { return c.id }

// Mode returns the session mode.
func (c *Controller) Mode() model.Mode { return c.mode }

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Info returns a snapshot of the session.
func (c *Controller) Info() Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Info{
		ID:                  c.id,
		Mode:                c.mode,
		State:               c.state,
		Stats:               c.acc.Stats(),
		LastFrameViolations: c.lastViolations,
		StartedAt:           c.startedAt,
	}
}

func (c *Controller) transition(to State, from ...State) error {
	for _, f := range from {
		if c.state == f {
			c.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.state, to)
}

// Start moves an Idle session to Active.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.transition(Active, Idle); err != nil {
		return err
	}
	c.startedAt = c.now()
	return nil
}

// Pause moves an Active session to Paused. Frames received while paused
// are dropped.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transition(Paused, Active)
}

// Resume moves a Paused session back to Active.
func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transition(Active, Paused)
}

// End closes an Active or Paused session, returns its summary and resets
// the statistics.
func (c *Controller) End() (model.SessionSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.transition(Ended, Active, Paused); err != nil {
		return model.SessionSummary{}, err
	}
	stats := c.acc.Stats()
	summary := model.SessionSummary{
		ID:                  c.id,
		Mode:                c.mode,
		Stats:               stats,
		DurationSeconds:     stats.TotalFrames / c.fps,
		LastFrameViolations: c.lastViolations,
		StartedAt:           c.startedAt,
		EndedAt:             c.now(),
	}
	c.acc.Reset()
	c.lastViolations = 0
	return summary, nil
}

// Process evaluates one frame of raw landmarks. Frames with too few
// landmarks return a skipped result and an error wrapping
// keypoints.ErrUnavailable; they are not counted. Violations reach the sink
// in order after the session lock is released.
func (c *Controller) Process(ctx context.Context, landmarks []model.Landmark) (FrameResult, error) {
	res, err := c.evaluate(landmarks)
	if err != nil {
		return res, err
	}
	c.publish(ctx, res)
	return res, nil
}

func (c *Controller) evaluate(landmarks []model.Landmark) (FrameResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Active:
	case Paused:
		c.dropped(DropPaused)
		return FrameResult{}, fmt.Errorf("process %s: %w", c.id, ErrPaused)
	default:
		return FrameResult{}, fmt.Errorf("process %s (%s): %w", c.id, c.state, ErrNotActive)
	}

	c.seq++
	seq := c.seq

	frame, err := keypoints.Extract(landmarks)
	if err != nil {
		c.dropped(DropUnavailable)
		return FrameResult{Seq: seq, Stats: c.acc.Stats(), Skipped: true}, fmt.Errorf("process %s: %w", c.id, err)
	}

	start := time.Now()
	violations := c.engine.Evaluate(c.mode, frame)
	stats := c.acc.Record(len(violations) > 0)
	c.lastViolations = len(violations)
	if c.observer != nil {
		c.observer.FrameEvaluated(c.mode, violations, time.Since(start))
	}
	return FrameResult{Seq: seq, Violations: violations, Stats: stats}, nil
}

func (c *Controller) publish(ctx context.Context, res FrameResult) { //nolint:gocritic // hugeParam
	if c.sink == nil {
		return
	}
	for _, v := range res.Violations {
		ev := Event{SessionID: c.id, Mode: c.mode, Seq: res.Seq, Violation: v}
		if err := c.sink.Emit(ctx, ev); err != nil {
			c.logger.Warn(ctx, "violation sink failed",
				logger.String("session", c.id),
				logger.String("type", string(v.Type)),
				logger.Error(err))
			if c.observer != nil {
				c.observer.SinkFailed(c.mode)
			}
		}
	}
}

func (c *Controller) dropped(reason string) {
	if c.observer != nil {
		c.observer.FrameDropped(c.mode, reason)
	}
}
