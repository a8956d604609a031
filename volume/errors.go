package volume

import "errors"

// Monitor lifecycle errors.
var (
	// ErrAlreadyStarted indicates Start was called twice.
	ErrAlreadyStarted = errors.New("volume monitor already started")

	// ErrStopped indicates Start after Stop.
	ErrStopped = errors.New("volume monitor stopped")
)
