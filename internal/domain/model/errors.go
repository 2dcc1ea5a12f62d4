package model

import "errors"

// Sentinel error kinds for this package.
var (
	ErrUnknownMode     = errors.New("unknown mode")
	ErrUnknownSeverity = errors.New("unknown severity")
)
