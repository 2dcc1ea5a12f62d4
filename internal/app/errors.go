package service

import "errors"

// Sentinel error kinds returned by the Service.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrBackpressure    = errors.New("frame queue full")
	ErrNotStarted      = errors.New("service not started")
)
