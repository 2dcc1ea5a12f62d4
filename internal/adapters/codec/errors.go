package codec

import "errors"

// Sentinel kinds for codec errors.
var (
	ErrUnknownFormat = errors.New("unknown recording format")
	ErrFrameTooLarge = errors.New("recorded frame too large")
)
