// Package volume turns live microphone input into a loudness signal.
//
// A Monitor runs one background goroutine that reads buffers from an
// audio.Source, computes their RMS loudness, publishes it to a single atomic
// slot and appends the raw buffer to the session's audio.ChunkLog:
//
//	mon := volume.NewMonitor(source, chunks, volume.Config{FramesPerBuffer: 1048})
//	if err := mon.Start(ctx); err != nil {
//	    return err
//	}
//	defer mon.Stop()
//
//	v := mon.LatestVolume() // never blocks
//
// # Consistency
//
// LatestVolume is eventually consistent: a reader may observe the loudness
// of the previous buffer, never a torn value and never a queued backlog.
//
// # Shutdown
//
// Stop clears the running flag, cancels the in-flight read, waits for the
// goroutine to exit, closes the source and then closes the chunk log. Only
// after Stop returns may the chunk log be persisted.
//
// # Jump Impulse
//
// ImpulseMapper converts loudness into an upward impulse:
//
//	0                                        if v <= Threshold
//	-min(Base + (v-Threshold)/Scale, Cap)    otherwise
//
// so louder screams jump higher up to a ceiling.
package volume
