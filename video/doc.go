// Package video provides camera sources, pixel conversion and the on-disk
// frame container used by the recorder and the muxer.
//
// Cameras deliver fixed-size BGR24 frames through a pull-based Camera
// interface with a bounded wait. FFmpegCamera reads rawvideo from an ffmpeg
// subprocess and keeps only the newest frame; PatternCamera synthesizes
// frames for tests and headless runs.
//
// The container stores composited frames as a msgpack stream:
//
//	header  {magic, width, height, fps, format, compression, created}
//	frame*  {kind=frame, tick, timestamp, zstd(rgb24 pixels)}
//	trailer {kind=trailer, frames}
//
// A container without its trailer was not closed cleanly and is reported as
// ErrTruncated by FrameReader.
package video
