// Package mux combines a sealed recording into one audio/video file.
//
// Combine waits for the recorder's seal manifest, verifies both sinks
// against the digests it records, then streams the container's frames as
// rawvideo into an encoder process alongside the WAV file. The encoder
// writes to a temporary file next to the output which is renamed into place
// only on success, so a failed combine leaves neither a partial output nor
// any change to the source files.
//
// Every failure wraps ErrMerge; the specific cause is one of
// ErrMissingInput, ErrNotSealed, ErrCorruptInput or ErrEncodeFailed.
//
// The encoder is reached through the Runner interface. ExecRunner runs
// ffmpeg; tests substitute a fake that consumes stdin and writes a file.
package mux
