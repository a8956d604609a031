// Package screamjump runs a voice-controlled platformer session and records
// it.
//
// A Session owns every component of one run: the volume monitor sampling the
// microphone in the background, the physics world, the frame compositor, the
// recorder and the muxer. Nothing is global; the session is the context
// object passed to whoever drives it.
//
// # Getting Started
//
//	options := screamjump.NewOptions()
//	options.Audio = source   // audio.Source, e.g. audio.NewPulseSource
//	options.Camera = camera  // video.Camera, e.g. video.OpenFFmpegCamera
//
//	session, err := screamjump.NewSession(options)
//	if err != nil {
//	    log.Fatal(err) // output directory or sinks unavailable
//	}
//
//	result, err := session.Run(ctx)
//
// Run ticks at the configured frame rate until the result banner has been
// shown, the context is cancelled or MaxTicks is reached, then tears down.
//
// # Event Loop
//
// Callers that own their loop use Iterate instead of Run:
//
//	session.Start(ctx)
//	for session.IsRunning() {
//	    session.Iterate(ctx)
//	    time.Sleep(session.IterationInterval())
//	}
//	result, err := session.Stop(ctx)
//
// Each iteration pulls one camera frame with a bounded wait, reads the latest
// loudness, advances physics, composites and records one frame. A camera
// failure never stalls physics: depending on Camera.FailurePolicy the tick is
// either not recorded or composited over the last good camera frame.
//
// # Teardown
//
// Stop runs the teardown in a fixed order: stop and join the volume monitor,
// close the camera, seal the recorder, combine the sinks, publish. Errors
// from sealing or combining are returned; the recorded sinks are left on
// disk in every case.
package screamjump
