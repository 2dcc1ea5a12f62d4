package repository

import "errors"

// Sentinel kinds for history errors.
var (
	ErrNotFound     = errors.New("session summary not found")
	ErrInvalidLimit = errors.New("invalid history limit")
	ErrDuplicate    = errors.New("session summary already stored")
)
