package screamjump

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/opd-ai/screamjump/audio"
	"github.com/opd-ai/screamjump/compositor"
	"github.com/opd-ai/screamjump/config"
	"github.com/opd-ai/screamjump/level"
	"github.com/opd-ai/screamjump/mux"
	"github.com/opd-ai/screamjump/physics"
	"github.com/opd-ai/screamjump/publish"
	"github.com/opd-ai/screamjump/record"
	"github.com/opd-ai/screamjump/video"
	"github.com/opd-ai/screamjump/volume"
	"github.com/sirupsen/logrus"
)

// TimeProvider abstracts time for deterministic testing.
type TimeProvider interface {
	Now() time.Time
}

// DefaultTimeProvider uses the standard library time functions.
type DefaultTimeProvider struct{}

// Now returns the current time.
func (DefaultTimeProvider) Now() time.Time { return time.Now() }

// Options holds everything a session needs. Audio and Camera are required;
// the session closes both during teardown.
type Options struct {
	Config config.Config
	Layout level.Layout

	Audio   audio.Source
	Camera  video.Camera
	Sprites compositor.SpriteProvider

	// Runner executes the encoder; nil runs ffmpeg.
	Runner mux.Runner
	// Publisher uploads the combined file; nil disables publishing.
	Publisher publish.Publisher

	// MaxTicks ends the session after this many iterations; zero means no
	// limit.
	MaxTicks     uint64
	TimeProvider TimeProvider
}

// NewOptions returns options with the default configuration and level.
func NewOptions() *Options {
	return &Options{
		Config:       config.Default(),
		Layout:       level.Default(),
		TimeProvider: DefaultTimeProvider{},
	}
}

// Result summarizes a finished session.
type Result struct {
	Outcome physics.Outcome
	Score   int
	Lives   int
	Ticks   uint64

	FramesRecorded uint64
	FramesSkipped  uint64
	CameraFailures uint64

	Manifest   *record.Manifest
	OutputPath string
	Combined   bool
	// PublishedURL is set when the upload succeeded; PublishErr otherwise.
	PublishedURL string
	PublishErr   error
	Duration     time.Duration
}

// overrunCounter is implemented by sources that drop audio when the reader
// falls behind.
type overrunCounter interface {
	Overruns() uint64
}

// Session is one recorded run.
type Session struct {
	opts Options
	cfg  config.Config
	tp   TimeProvider

	chunks    *audio.ChunkLog
	monitor   *volume.Monitor
	world     *physics.World
	comp      *compositor.Compositor
	recorder  *record.Recorder
	muxer     *mux.Muxer
	camera    video.Camera
	publisher publish.Publisher

	mu        sync.Mutex
	started   bool
	stopped   bool
	running   bool
	startedAt time.Time
	iter      uint64
	lastFrame *video.Frame
	skipped   uint64
	camFails  uint64
	result    *Result
	stopErr   error
}

// TuningFromConfig maps configuration onto physics tuning.
func TuningFromConfig(p config.PhysicsConfig, v config.VideoConfig) physics.Tuning {
	t := physics.DefaultTuning()
	t.Impulse = volume.ImpulseMapper{
		Threshold: p.Threshold,
		Base:      p.ImpulseBase,
		Scale:     p.ImpulseScale,
		Cap:       p.ImpulseCap,
	}
	t.Gravity = p.Gravity
	t.ScrollSpeed = p.ScrollSpeed
	t.AutoAdvance = p.AutoAdvance
	t.ScorePerTick = p.ScorePerTick
	t.Lives = p.Lives
	t.InvincibleDuration = p.InvincibleDuration
	t.BannerDuration = p.BannerDuration
	t.CountdownDuration = p.CountdownDuration
	t.Viewport = physics.Size{W: float64(v.Width), H: float64(v.Height)}
	return t
}

// NewSession validates options and opens the recording sinks. It fails with
// record.ErrResourceExhausted before any capture starts when the sinks
// cannot be prepared; devices are left open for the caller in that case.
func NewSession(options *Options) (*Session, error) {
	if options == nil {
		options = NewOptions()
	}
	opts := *options
	if opts.Audio == nil || opts.Camera == nil {
		return nil, ErrMissingDevice
	}
	if opts.TimeProvider == nil {
		opts.TimeProvider = DefaultTimeProvider{}
	}
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	gain, err := audio.NewGain(cfg.Audio.InputGain)
	if err != nil {
		return nil, err
	}

	now := opts.TimeProvider.Now()
	world, err := physics.NewWorld(opts.Layout, TuningFromConfig(cfg.Physics, cfg.Video), now)
	if err != nil {
		return nil, fmt.Errorf("build world: %w", err)
	}

	compCfg := compositor.DefaultConfig()
	compCfg.Width = cfg.Video.Width
	compCfg.Height = cfg.Video.Height
	compCfg.Mirror = cfg.Camera.Mirror
	comp, err := compositor.New(compCfg, opts.Sprites)
	if err != nil {
		return nil, err
	}

	chunks := audio.NewChunkLog()
	recorder, err := record.New(record.Config{
		Dir:          cfg.Record.Dir,
		VideoPath:    cfg.Record.VideoPath(),
		AudioPath:    cfg.Record.AudioPath(),
		MinFreeBytes: cfg.Record.MinFreeBytes,
		Video: video.ContainerOptions{
			Width:       cfg.Video.Width,
			Height:      cfg.Video.Height,
			FPS:         cfg.Video.FPS,
			Compression: cfg.Video.Compression,
		},
		SampleRate:   cfg.Audio.SampleRate,
		TimeProvider: opts.TimeProvider,
	}, chunks)
	if err != nil {
		return nil, err
	}

	monitor := volume.NewMonitor(opts.Audio, chunks, volume.Config{
		FramesPerBuffer: cfg.Audio.FramesPerBuffer,
		Gain:            gain,
		ErrorBackoff:    cfg.Audio.ErrorBackoff,
		TimeProvider:    opts.TimeProvider,
	})

	muxer := mux.New(mux.Config{
		FFmpegPath:   cfg.Mux.FFmpegPath,
		VideoCodec:   cfg.Mux.VideoCodec,
		AudioCodec:   cfg.Mux.AudioCodec,
		AudioBitRate: cfg.Mux.AudioBitRate,
		SealWait:     cfg.Mux.SealWait,
	}, opts.Runner)

	logrus.WithFields(logrus.Fields{
		"function": "NewSession",
		"layout":   opts.Layout.String(),
		"fps":      cfg.Video.FPS,
		"output":   cfg.OutputPath(),
		"camera":   cfg.Camera.FailurePolicy,
	}).Info("Session created")

	return &Session{
		opts:      opts,
		cfg:       cfg,
		tp:        opts.TimeProvider,
		chunks:    chunks,
		monitor:   monitor,
		world:     world,
		comp:      comp,
		recorder:  recorder,
		muxer:     muxer,
		camera:    opts.Camera,
		publisher: opts.Publisher,
	}, nil
}

// IterationInterval returns the tick period.
func (s *Session) IterationInterval() time.Duration {
	return time.Second / time.Duration(s.cfg.Video.FPS)
}

// IsRunning reports whether the session still wants iterations.
func (s *Session) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// World returns the physics world. It must only be read between iterations.
func (s *Session) World() *physics.World { return s.world }

// Start begins background audio sampling.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}
	if err := s.monitor.Start(ctx); err != nil {
		return err
	}
	s.started = true
	s.running = true
	s.startedAt = s.tp.Now()
	s.world.Begin(s.startedAt)
	return nil
}

// Iterate runs one tick: camera pull, physics step, composite, record.
func (s *Session) Iterate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ErrNotStarted
	}
	if !s.running {
		return nil
	}

	now := s.tp.Now()
	s.iter++

	frame, err := s.camera.ReadFrame(ctx)
	if err != nil {
		s.camFails++
		logrus.WithFields(logrus.Fields{
			"function": "Session.Iterate",
			"tick":     s.iter,
			"error":    err.Error(),
		}).Debug("Camera frame unavailable")
		frame = nil
		if s.cfg.Camera.FailurePolicy == config.CameraReuse {
			frame = s.lastFrame
		}
	} else {
		s.lastFrame = frame
	}

	vol := s.monitor.LatestVolume()
	s.world.Step(vol, now)

	if s.world.Done() || (s.opts.MaxTicks > 0 && s.iter >= s.opts.MaxTicks) {
		s.running = false
	}

	if frame == nil {
		s.skipped++
		return nil
	}

	img, err := s.comp.Render(frame, s.world.View(), compositor.HUD{
		Volume: vol,
		Score:  s.world.Score(),
		Lives:  s.world.Lives(),
	})
	if err != nil {
		s.skipped++
		logrus.WithFields(logrus.Fields{
			"function": "Session.Iterate",
			"tick":     s.iter,
			"error":    err.Error(),
		}).Warn("Compositing failed, frame skipped")
		return nil
	}

	if err := s.recorder.RecordFrame(&video.CapturedFrame{Image: img, Tick: s.iter, Timestamp: now}); err != nil {
		s.skipped++
		logrus.WithFields(logrus.Fields{
			"function": "Session.Iterate",
			"tick":     s.iter,
			"error":    err.Error(),
		}).Error("Recording frame failed")
		return err
	}
	return nil
}

// Run starts the session, ticks at the configured rate until it ends or ctx
// is cancelled, then tears down.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	if err := s.Start(ctx); err != nil {
		return nil, err
	}

	ticker := time.NewTicker(s.IterationInterval())
	defer ticker.Stop()

loop:
	for s.IsRunning() {
		select {
		case <-ctx.Done():
			logrus.WithFields(logrus.Fields{
				"function": "Session.Run",
				"error":    ctx.Err().Error(),
			}).Info("Session interrupted")
			break loop
		case <-ticker.C:
			if err := s.Iterate(ctx); err != nil && !errors.Is(err, record.ErrSealed) {
				logrus.WithFields(logrus.Fields{
					"function": "Session.Run",
					"error":    err.Error(),
				}).Warn("Iteration failed")
			}
		}
	}

	return s.Stop(ctx)
}

// Stop tears the session down: monitor, camera, seal, combine, publish.
// Teardown ignores cancellation of ctx so an interrupted session is still
// sealed and combined. Later calls return the first result.
func (s *Session) Stop(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return s.result, s.stopErr
	}
	s.stopped = true
	s.running = false
	ctx = context.WithoutCancel(ctx)

	s.monitor.Stop()
	if src, ok := s.opts.Audio.(overrunCounter); ok && src.Overruns() > 0 {
		logrus.WithFields(logrus.Fields{
			"function": "Session.Stop",
			"overruns": src.Overruns(),
		}).Warn("Audio fragments dropped during capture")
	}
	if err := s.camera.Close(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Session.Stop",
			"error":    err.Error(),
		}).Warn("Closing camera failed")
	}

	res := &Result{
		Outcome:        s.world.Outcome(),
		Score:          s.world.Score(),
		Lives:          s.world.Lives(),
		Ticks:          s.iter,
		FramesRecorded: s.recorder.Frames(),
		FramesSkipped:  s.skipped,
		CameraFailures: s.camFails,
		OutputPath:     s.cfg.OutputPath(),
	}
	if !s.startedAt.IsZero() {
		res.Duration = s.tp.Now().Sub(s.startedAt)
	}
	s.result = res

	manifest, err := s.recorder.Seal()
	if err != nil {
		s.stopErr = fmt.Errorf("seal recording: %w", err)
		return res, s.stopErr
	}
	res.Manifest = manifest

	if s.cfg.Mux.Enabled {
		if err := s.muxer.Combine(ctx, manifest.VideoPath, manifest.AudioPath, res.OutputPath); err != nil {
			s.stopErr = err
			s.logSummary(res)
			return res, err
		}
		res.Combined = true

		if s.publisher != nil {
			res.PublishedURL, res.PublishErr = s.publisher.Publish(ctx, res.OutputPath)
			if res.PublishErr != nil {
				logrus.WithFields(logrus.Fields{
					"function": "Session.Stop",
					"error":    res.PublishErr.Error(),
				}).Error("Publishing failed, output kept locally")
			}
		}
	}

	s.logSummary(res)
	return res, nil
}

func (s *Session) logSummary(res *Result) {
	logrus.WithFields(logrus.Fields{
		"function":        "Session.Stop",
		"outcome":         res.Outcome.String(),
		"score":           res.Score,
		"lives":           res.Lives,
		"ticks":           res.Ticks,
		"frames_recorded": res.FramesRecorded,
		"frames_skipped":  res.FramesSkipped,
		"camera_failures": res.CameraFailures,
		"combined":        res.Combined,
		"published":       res.PublishedURL,
		"duration":        res.Duration.String(),
	}).Info("Session finished")
}
