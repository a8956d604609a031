package mux

import (
	"errors"
	"fmt"
)

// ErrMerge is the root of every combine failure.
var ErrMerge = errors.New("merge failed")

var (
	// ErrMissingInput indicates a source file does not exist.
	ErrMissingInput = fmt.Errorf("%w: input missing", ErrMerge)
	// ErrNotSealed indicates the seal manifest did not appear in time.
	ErrNotSealed = fmt.Errorf("%w: recording not sealed", ErrMerge)
	// ErrCorruptInput indicates a source that fails verification or decoding.
	ErrCorruptInput = fmt.Errorf("%w: input corrupt", ErrMerge)
	// ErrEncodeFailed indicates the encoder process failed.
	ErrEncodeFailed = fmt.Errorf("%w: encode failed", ErrMerge)
)
