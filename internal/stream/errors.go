package stream

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrNotActive         = errors.New("session not active")
	ErrPaused            = errors.New("session paused")
)
