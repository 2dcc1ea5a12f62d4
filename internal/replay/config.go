// Package replay streams recorded landmark frames through a session and
// writes synthetic recordings for end-to-end checks.
package replay

import (
	"errors"
	"io"

	"github.com/okian/posturai/internal/domain/model"
)

// Sentinel errors for replay configuration.
var (
	ErrNoInput         = errors.New("no recording file given")
	ErrInvalidSynthArg = errors.New("invalid synth arguments")
)

// Config holds the options of a replay run.
type Config struct {
	File       string     // recording to read
	Mode       model.Mode // rule set to apply
	FPS        int        // frame rate used for the session duration
	Visibility float64    // landmark visibility threshold; zero means the default
	Verbose    bool       // write every frame result
	Out        io.Writer  // destination for results
}

// SynthConfig holds the options of a synthetic recording.
type SynthConfig struct {
	Mode      model.Mode
	Frames    int
	Violating int
}

// Report is the outcome of a replay run.
type Report struct {
	Summary    model.SessionSummary `json:"summary"`
	FramesRead int                  `json:"frames_read"`
	Skipped    int                  `json:"skipped"`
	Violations int                  `json:"violations"`
}
