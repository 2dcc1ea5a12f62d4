package model

import "time"

// SessionStats is the running aggregate of processed frames versus frames
// with at least one violation.
type SessionStats struct {
	TotalFrames     int `json:"total_frames"`
	ViolatingFrames int `json:"violating_frames"`
	AccuracyPercent int `json:"accuracy_percent"`
}

// SessionSummary is assembled by the host when a session ends.
type SessionSummary struct {
	ID                  string       `json:"id"`
	Mode                Mode         `json:"mode"`
	Stats               SessionStats `json:"stats"`
	DurationSeconds     int          `json:"duration_seconds"`
	LastFrameViolations int          `json:"last_frame_violations"`
	StartedAt           time.Time    `json:"started_at"`
	EndedAt             time.Time    `json:"ended_at"`
}
