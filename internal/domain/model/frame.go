package model

import "time"

// FrameEnvelope is a frame accepted for asynchronous evaluation.
type FrameEnvelope struct {
	SessionID  string     `json:"session_id"`
	FrameID    string     `json:"frame_id"`
	Landmarks  []Landmark `json:"landmarks"`
	ReceivedAt time.Time  `json:"received_at"`
}
