// Package repository keeps ended-session summaries and violation tallies
// in memory for the lifetime of the process.
package repository

import (
	"context"

	"github.com/okian/posturai/internal/domain/model"
)

// Insights aggregates the retained history.
type Insights struct {
	Sessions int `json:"sessions"`
	// AverageAccuracy is the mean final accuracy over every retained session.
	AverageAccuracy int `json:"average_accuracy"`
	// PostureScore is the mean final accuracy of the last ten sessions.
	PostureScore int `json:"posture_score"`
	// Trend compares the last five sessions with the five before them.
	Trend            int                         `json:"trend"`
	TotalViolations  int                         `json:"total_violations"`
	ViolationsByType map[model.ViolationType]int `json:"violations_by_type"`
	SessionsByMode   map[string]int              `json:"sessions_by_mode"`
}

// Store provides access to session history.
type Store interface {
	// Append stores the summary of an ended session.
	Append(ctx context.Context, s model.SessionSummary) error

	// Get returns a stored summary. Returns ErrNotFound if unknown.
	Get(ctx context.Context, id string) (model.SessionSummary, error)

	// Recent returns up to n summaries, most recent first.
	Recent(ctx context.Context, n int) ([]model.SessionSummary, error)

	// RecordViolation tallies one emitted violation.
	RecordViolation(ctx context.Context, t model.ViolationType)

	Insights(ctx context.Context) Insights

	Count(ctx context.Context) int
}
