package model

import (
	"encoding/json"
	"fmt"
)

// Severity grades a violation.
type Severity int

// Severities, least severe first.
const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return "unknown"
}

// MarshalJSON encodes the severity as its name.
func (s Severity) MarshalJSON() ([]byte, error) {
	if s != Warning && s != Error {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSeverity, int(s))
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a severity name.
func (s *Severity) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	switch name {
	case "warning":
		*s = Warning
	case "error":
		*s = Error
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSeverity, name)
	}
	return nil
}

// ViolationType names the rule that produced a violation.
type ViolationType string

// Known violation types.
const (
	NeckAngle   ViolationType = "neck_angle"
	BackSlouch  ViolationType = "back_slouch"
	KneeOverToe ViolationType = "knee_over_toe"
	BackAngle   ViolationType = "back_angle"
	SquatDepth  ViolationType = "squat_depth"
)

// Violation is a single rule-triggered posture deviation. Angle carries the
// measured quantity and Threshold the literal limit it was compared against.
type Violation struct {
	Type            ViolationType `json:"type"`
	Severity        Severity      `json:"severity"`
	Message         string        `json:"message"`
	RuleDescription string        `json:"rule"`
	Angle           *float64      `json:"angle,omitempty"`
	Threshold       *float64      `json:"threshold,omitempty"`
}
