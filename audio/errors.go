package audio

import "errors"

// Chunk log errors.
var (
	// ErrChunkLogOpen indicates the log is still accepting appends.
	ErrChunkLogOpen = errors.New("chunk log still open")

	// ErrChunkLogClosed indicates an append after Close.
	ErrChunkLogClosed = errors.New("chunk log closed")
)

// Source errors.
var (
	// ErrSourceClosed indicates a read from a closed source.
	ErrSourceClosed = errors.New("audio source closed")

	// ErrReadTimeout indicates no buffer arrived within the read timeout.
	ErrReadTimeout = errors.New("audio read timed out")
)

// Sink errors.
var (
	// ErrInvalidFormat indicates a WAV file that does not match the session format.
	ErrInvalidFormat = errors.New("invalid audio format")

	// ErrInvalidGain indicates a gain outside [0, MaxGain].
	ErrInvalidGain = errors.New("invalid gain")
)
