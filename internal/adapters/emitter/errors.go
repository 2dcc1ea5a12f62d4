package emitter

import "errors"

// Sentinel kinds for emitter errors.
var (
	ErrNotConnected   = errors.New("mqtt not connected")
	ErrConnectTimeout = errors.New("mqtt connection timeout")
	ErrPublishTimeout = errors.New("mqtt publish timeout")
)
