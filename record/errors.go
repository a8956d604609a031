package record

import "errors"

var (
	// ErrResourceExhausted indicates the session cannot start: the output
	// directory or a sink cannot be created, or free space is too low.
	ErrResourceExhausted = errors.New("recording resources unavailable")
	// ErrSealed indicates a write after Seal.
	ErrSealed = errors.New("recording sealed")
	// ErrProducerRunning indicates Seal was called while audio capture was
	// still appending chunks.
	ErrProducerRunning = errors.New("audio producer still running")
	// ErrManifest indicates a missing or unreadable seal manifest.
	ErrManifest = errors.New("invalid seal manifest")
)
