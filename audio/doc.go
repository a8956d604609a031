// Package audio provides microphone capture and audio persistence for a
// screamjump session.
//
// The capture side is a pull-based Source producing mono 16-bit PCM at a
// fixed sample rate. PulseSource reads the default PulseAudio input through
// github.com/jfreymuth/pulse; ToneSource produces scripted buffers for tests
// and headless runs.
//
// # Chunk Log
//
// Every buffer read from the Source is appended to a ChunkLog together with
// its capture timestamp. The log has exactly one producer (the volume
// sampler) and is read once, after the producer has stopped:
//
//	log := audio.NewChunkLog()
//	log.Append(audio.Chunk{Samples: buf, Captured: now})
//	...
//	log.Close()              // producer joined, no more appends
//	chunks, err := log.Chunks()
//
// Chunks returns ErrChunkLogOpen until Close has been called. This is the
// barrier that keeps persistence from racing the sampler.
//
// # WAV Sink
//
// WriteWAV streams a closed ChunkLog to a PCM WAV file through the
// github.com/faiface/beep wav encoder. InspectWAV decodes a WAV header and
// reports its format, which the muxer uses to reject corrupt audio sinks.
//
// # Gain
//
// Gain is a clipping linear multiplier applied to captured buffers before
// loudness is computed, so a quiet microphone can be calibrated without
// touching the jump threshold.
package audio
