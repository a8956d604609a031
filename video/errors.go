package video

import "errors"

// Camera errors.
var (
	// ErrCameraTimeout indicates no frame arrived within the bounded wait.
	ErrCameraTimeout = errors.New("camera frame not available")
	// ErrCameraClosed indicates the camera was closed or its stream ended.
	ErrCameraClosed = errors.New("camera closed")
	// ErrFrameSize indicates a pixel buffer that does not match its dimensions.
	ErrFrameSize = errors.New("frame size mismatch")
)

// Container errors.
var (
	// ErrBadMagic indicates a file that is not a frame container.
	ErrBadMagic = errors.New("not a frame container")
	// ErrTruncated indicates a container that ends before its trailer.
	ErrTruncated = errors.New("frame container truncated")
	// ErrWriterClosed indicates a write after Close.
	ErrWriterClosed = errors.New("frame writer closed")
	// ErrCompression indicates an unknown compression level name.
	ErrCompression = errors.New("unknown compression level")
)
