// Package record persists a session: composited frames go to a frame
// container on disk as they are produced, and microphone chunks collected by
// the volume monitor are written to a WAV file when the session is sealed.
//
// # Lifecycle
//
//	rec, err := record.New(cfg, chunks) // preflight, fatal on failure
//	rec.RecordFrame(frame)              // once per tick, single writer
//	monitor.Stop()                      // closes chunks
//	manifest, err := rec.Seal()         // flush, fsync, WAV, digests
//
// Seal refuses to run while the chunk log is still open, so audio capture
// must be stopped and joined first. The manifest written by Seal next to the
// video file is the seal marker: it records both sink paths and their
// BLAKE2b-256 digests, and the muxer will not start without it.
package record
