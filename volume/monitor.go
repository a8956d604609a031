package volume

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/screamjump/audio"
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

// Config configures a Monitor.
type Config struct {
	FramesPerBuffer int
	// Gain is applied to every buffer before loudness and persistence.
	// Nil means unity.
	Gain *audio.Gain
	// ErrorBackoff paces the loop after a failed read.
	ErrorBackoff time.Duration
	TimeProvider TimeProvider
}

// Monitor samples an audio.Source in the background and publishes loudness.
type Monitor struct {
	source audio.Source
	chunks *audio.ChunkLog
	cfg    Config

	latest  atomic.Uint64
	running atomic.Bool
	reads   atomic.Uint64
	errs    atomic.Uint64

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewMonitor creates a stopped monitor. chunks receives every buffer read.
func NewMonitor(source audio.Source, chunks *audio.ChunkLog, cfg Config) *Monitor {
	if cfg.FramesPerBuffer <= 0 {
		cfg.FramesPerBuffer = audio.FramesPerBuffer
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = 10 * time.Millisecond
	}
	if cfg.TimeProvider == nil {
		cfg.TimeProvider = DefaultTimeProvider{}
	}

	logrus.WithFields(logrus.Fields{
		"function":          "NewMonitor",
		"frames_per_buffer": cfg.FramesPerBuffer,
		"gain":              cfg.Gain.Value(),
	}).Debug("Volume monitor created")

	return &Monitor{
		source: source,
		chunks: chunks,
		cfg:    cfg,
		done:   make(chan struct{}),
	}
}

// Start launches the sampling goroutine.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return ErrStopped
	}
	if m.started {
		return ErrAlreadyStarted
	}
	m.started = true

	ctx, m.cancel = context.WithCancel(ctx)
	m.running.Store(true)
	go m.run(ctx)

	logrus.WithFields(logrus.Fields{
		"function": "Monitor.Start",
	}).Info("Volume monitor started")
	return nil
}

// LatestVolume returns the loudness of the most recent buffer without blocking.
func (m *Monitor) LatestVolume() float64 {
	return math.Float64frombits(m.latest.Load())
}

// Running reports whether the sampling loop is active.
func (m *Monitor) Running() bool {
	return m.running.Load()
}

// Reads returns the number of buffers successfully read.
func (m *Monitor) Reads() uint64 { return m.reads.Load() }

// Errors returns the number of failed reads.
func (m *Monitor) Errors() uint64 { return m.errs.Load() }

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)
	buf := make([]int16, m.cfg.FramesPerBuffer)

	for m.running.Load() {
		n, err := m.source.Read(ctx, buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, audio.ErrSourceClosed) {
				return
			}
			m.errs.Add(1)
			logrus.WithFields(logrus.Fields{
				"function": "Monitor.run",
				"error":    err.Error(),
			}).Warn("Audio read failed, continuing")
			m.pause(ctx)
			continue
		}
		if n == 0 {
			continue
		}

		samples := make([]int16, n)
		copy(samples, buf[:n])
		m.cfg.Gain.Apply(samples)

		m.latest.Store(math.Float64bits(RMS(samples)))
		m.reads.Add(1)

		if err := m.chunks.Append(audio.Chunk{Samples: samples, Captured: m.cfg.TimeProvider.Now()}); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Monitor.run",
				"error":    err.Error(),
			}).Warn("Dropping audio chunk")
		}
	}
}

func (m *Monitor) pause(ctx context.Context) {
	t := time.NewTimer(m.cfg.ErrorBackoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Stop halts sampling, joins the goroutine, closes the source and closes the
// chunk log. It is idempotent and safe to call without Start.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	started := m.started
	m.mu.Unlock()

	m.running.Store(false)
	if started {
		m.cancel()
		<-m.done
	}

	if err := m.source.Close(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Monitor.Stop",
			"error":    err.Error(),
		}).Warn("Closing audio source failed")
	}
	m.chunks.Close()

	logrus.WithFields(logrus.Fields{
		"function": "Monitor.Stop",
		"reads":    m.reads.Load(),
		"errors":   m.errs.Load(),
		"chunks":   m.chunks.Len(),
	}).Info("Volume monitor stopped")
}
