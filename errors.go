package screamjump

import "errors"

var (
	// ErrMissingDevice indicates Options without an audio source or camera.
	ErrMissingDevice = errors.New("audio source and camera are required")
	// ErrAlreadyStarted indicates Start or Run on a session that already ran.
	ErrAlreadyStarted = errors.New("session already started")
	// ErrNotStarted indicates Iterate before Start.
	ErrNotStarted = errors.New("session not started")
)
