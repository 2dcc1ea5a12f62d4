// Package session aggregates per-frame outcomes into running accuracy
// statistics.
package session

import (
	"math"

	"github.com/okian/posturai/internal/domain/model"
)

// Accumulator counts processed and violating frames of one session.
// It is not safe for concurrent use.
type Accumulator struct {
	total     int
	violating int
}

// NewAccumulator returns an Accumulator in its initial state.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Record counts one processed frame and returns the updated snapshot.
// Severity is irrelevant: any violation makes the frame violating.
func (a *Accumulator) Record(hadViolation bool) model.SessionStats {
	a.total++
	if hadViolation {
		a.violating++
	}
	return a.Stats()
}

// Stats returns the current snapshot.
func (a *Accumulator) Stats() model.SessionStats {
	return model.SessionStats{
		TotalFrames:     a.total,
		ViolatingFrames: a.violating,
		AccuracyPercent: Accuracy(a.total, a.violating),
	}
}

// Reset returns the counters to (0, 0, 100).
func (a *Accumulator) Reset() {
	a.total = 0
	a.violating = 0
}

// Accuracy returns round(100*(total-violating)/total), or 100 when no
// frame has been processed.
func Accuracy(total, violating int) int {
	if total <= 0 {
		return 100
	}
	return int(math.Round(100 * float64(total-violating) / float64(total)))
}
