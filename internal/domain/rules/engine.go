package rules

import "github.com/okian/posturai/internal/domain/model"

// Observer receives notifications about rules skipped for lack of visible
// landmarks.
type Observer interface {
	RuleSkipped(mode model.Mode, rule string)
}

// Engine evaluates frames against the rule set of a mode.
type Engine struct {
	threshold float64
	observer  Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithVisibilityThreshold sets the confidence a required landmark must
// exceed. Values outside [0,1] are ignored.
func WithVisibilityThreshold(t float64) Option {
	return func(e *Engine) {
		if t >= 0 && t <= 1 {
			e.threshold = t
		}
	}
}

// WithObserver registers an Observer for skipped rules.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// NewEngine creates an Engine with the default visibility threshold.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{threshold: model.DefaultVisibilityThreshold}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Threshold returns the visibility threshold in use.
func (e *Engine) Threshold() float64 { return e.threshold }

// For returns the fixed rule list of mode; unknown modes have none.
func For(mode model.Mode) []Rule {
	switch mode {
	case model.Desk:
		return DeskRules()
	case model.Squat:
		return SquatRules()
	}
	return nil
}

// Evaluate runs every rule of mode against frame and returns the
// violations in rule order. The result is nil when the frame complies.
func (e *Engine) Evaluate(mode model.Mode, frame model.KeypointFrame) []model.Violation {
	var out []model.Violation
	for _, r := range For(mode) {
		if !Visible(&frame, e.threshold, r.Requires()...) {
			if e.observer != nil {
				e.observer.RuleSkipped(mode, r.Name())
			}
			continue
		}
		if v, ok := r.Check(frame); ok {
			out = append(out, v)
		}
	}
	return out
}
