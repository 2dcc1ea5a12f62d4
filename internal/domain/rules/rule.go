// Package rules evaluates keypoint frames against per-mode posture rules.
//
// The engine is memoryless: each frame is judged on its own and produces a
// fresh, possibly empty, list of violations. A rule whose required
// landmarks are not reliably observed is skipped for that frame.
package rules

import (
	"math"

	"github.com/okian/posturai/internal/domain/geometry"
	"github.com/okian/posturai/internal/domain/model"
)

// Description is the human-readable summary of a rule.
type Description struct {
	Title string `json:"title"`
	Text  string `json:"description"`
}

// Rule is a single posture predicate over a keypoint frame.
type Rule interface {
	// Name is a stable identifier, unique across modes.
	Name() string
	Type() model.ViolationType
	// Requires lists the landmarks that must be visible for Check to run.
	Requires() []model.BodyPart
	Describe() Description
	// Check assumes the required landmarks are visible. It reports false
	// when the frame complies or the measurement is not a finite number.
	Check(frame model.KeypointFrame) (model.Violation, bool)
}

// Visible reports whether every listed part of frame has a confidence
// strictly above threshold.
func Visible(frame *model.KeypointFrame, threshold float64, parts ...model.BodyPart) bool {
	for _, p := range parts {
		lm, ok := frame.Point(p)
		if !ok || !lm.Visible(threshold) {
			return false
		}
	}
	return true
}

// classifier grades a measurement. It reports false when no violation applies.
type classifier func(v float64) (model.Severity, bool)

// above flags values strictly greater than limit; values strictly greater
// than severe are errors, the rest warnings.
func above(limit, severe float64) classifier {
	return func(v float64) (model.Severity, bool) {
		if !(v > limit) {
			return 0, false
		}
		if v > severe {
			return model.Error, true
		}
		return model.Warning, true
	}
}

// below flags values strictly less than limit; values strictly less than
// severe are errors, the rest warnings.
func below(limit, severe float64) classifier {
	return func(v float64) (model.Severity, bool) {
		if !(v < limit) {
			return 0, false
		}
		if v < severe {
			return model.Error, true
		}
		return model.Warning, true
	}
}

// measureRule is the shared Rule implementation: measure, grade, report.
type measureRule struct {
	name      string
	typ       model.ViolationType
	requires  []model.BodyPart
	desc      Description
	message   string
	threshold float64
	// measure returns the reported quantity and the value that is graded.
	measure  func(f model.KeypointFrame) (reported, graded float64)
	classify classifier
}

func (r *measureRule) Name() string              { return r.name }
func (r *measureRule) Type() model.ViolationType { return r.typ }
func (r *measureRule) Describe() Description     { return r.desc }

func (r *measureRule) Requires() []model.BodyPart {
	out := make([]model.BodyPart, len(r.requires))
	copy(out, r.requires)
	return out
}

func (r *measureRule) Check(f model.KeypointFrame) (model.Violation, bool) {
	reported, graded := r.measure(f)
	if !geometry.Finite(reported, graded) {
		return model.Violation{}, false
	}
	sev, ok := r.classify(graded)
	if !ok {
		return model.Violation{}, false
	}
	threshold := r.threshold
	return model.Violation{
		Type:            r.typ,
		Severity:        sev,
		Message:         r.message,
		RuleDescription: r.desc.Text,
		Angle:           &reported,
		Threshold:       &threshold,
	}, true
}

// same reports a measurement as-is.
func same(v float64) (float64, float64) { return v, v }

// magnitude reports and grades the absolute value of a signed measurement.
func magnitude(v float64) (float64, float64) {
	a := math.Abs(v)
	return a, a
}

func point(l model.Landmark) geometry.Point { return geometry.FromLandmark(l) }
