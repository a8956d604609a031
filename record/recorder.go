package record

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/opd-ai/screamjump/audio"
	"github.com/opd-ai/screamjump/video"
	"github.com/shirou/gopsutil/v3/disk"
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

// Config configures a Recorder.
type Config struct {
	Dir       string
	VideoPath string
	AudioPath string
	// MinFreeBytes is the free space Dir must offer at start. Zero skips the
	// check.
	MinFreeBytes uint64
	Video        video.ContainerOptions
	SampleRate   int
	TimeProvider TimeProvider
}

// Recorder owns the video and audio sinks of one session.
type Recorder struct {
	cfg    Config
	chunks *audio.ChunkLog
	writer *video.FrameWriter

	mu       sync.Mutex
	started  time.Time
	manifest *Manifest
	sealErr  error
	sealed   bool
}

// New prepares both sinks. Every failure is reported as ErrResourceExhausted
// so the caller can abort before any capture loop starts.
func New(cfg Config, chunks *audio.ChunkLog) (*Recorder, error) {
	if cfg.TimeProvider == nil {
		cfg.TimeProvider = DefaultTimeProvider{}
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = audio.SampleRate
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: output directory: %w", ErrResourceExhausted, err)
	}
	if err := preflight(cfg.Dir, cfg.MinFreeBytes); err != nil {
		return nil, err
	}

	// the seal marker must not predate this session
	if err := os.Remove(ManifestPath(cfg.VideoPath)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: stale manifest: %w", ErrResourceExhausted, err)
	}

	af, err := os.Create(cfg.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("%w: audio sink: %w", ErrResourceExhausted, err)
	}
	af.Close()

	now := cfg.TimeProvider.Now()
	w, err := video.CreateFrameWriter(cfg.VideoPath, cfg.Video, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceExhausted, err)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "record.New",
		"video_path":  cfg.VideoPath,
		"audio_path":  cfg.AudioPath,
		"sample_rate": cfg.SampleRate,
	}).Info("Recorder opened")

	return &Recorder{cfg: cfg, chunks: chunks, writer: w, started: now}, nil
}

func preflight(dir string, minFree uint64) error {
	if minFree == 0 {
		return nil
	}
	usage, err := disk.Usage(dir)
	if err != nil {
		return fmt.Errorf("%w: disk usage: %w", ErrResourceExhausted, err)
	}
	if usage.Free < minFree {
		return fmt.Errorf("%w: %d bytes free in %s, need %d", ErrResourceExhausted, usage.Free, dir, minFree)
	}

	logrus.WithFields(logrus.Fields{
		"function":   "record.preflight",
		"dir":        dir,
		"free_bytes": usage.Free,
		"required":   minFree,
	}).Debug("Disk preflight passed")
	return nil
}

// RecordFrame appends one composited frame to the video sink.
func (r *Recorder) RecordFrame(f *video.CapturedFrame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return ErrSealed
	}
	return r.writer.WriteFrame(f)
}

// Frames returns the number of frames recorded.
func (r *Recorder) Frames() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writer.Frames()
}

// Seal finalizes both sinks and writes the manifest. It fails with
// ErrProducerRunning while the chunk log is open and leaves the recorder
// writable in that case. Later calls return the first result.
func (r *Recorder) Seal() (*Manifest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return r.manifest, r.sealErr
	}
	if !r.chunks.Closed() {
		return nil, ErrProducerRunning
	}
	r.sealed = true
	r.manifest, r.sealErr = r.seal()
	return r.manifest, r.sealErr
}

func (r *Recorder) seal() (*Manifest, error) {
	if err := r.writer.Close(); err != nil {
		return nil, fmt.Errorf("seal video sink: %w", err)
	}
	if err := audio.WriteWAV(r.cfg.AudioPath, r.chunks, r.cfg.SampleRate); err != nil {
		return nil, fmt.Errorf("seal audio sink: %w", err)
	}

	videoDigest, err := FileDigest(r.cfg.VideoPath)
	if err != nil {
		return nil, fmt.Errorf("digest video sink: %w", err)
	}
	audioDigest, err := FileDigest(r.cfg.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("digest audio sink: %w", err)
	}

	m := &Manifest{
		Version:      ManifestVersion,
		VideoPath:    r.cfg.VideoPath,
		VideoDigest:  videoDigest,
		Frames:       r.writer.Frames(),
		Width:        r.cfg.Video.Width,
		Height:       r.cfg.Video.Height,
		FPS:          r.cfg.Video.FPS,
		AudioPath:    r.cfg.AudioPath,
		AudioDigest:  audioDigest,
		AudioChunks:  r.chunks.Len(),
		AudioSamples: r.chunks.SampleCount(),
		SampleRate:   r.cfg.SampleRate,
		Started:      r.started,
		Sealed:       r.cfg.TimeProvider.Now(),
	}
	if err := WriteManifest(ManifestPath(r.cfg.VideoPath), m); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function":       "Recorder.Seal",
		"frames":         m.Frames,
		"audio_chunks":   m.AudioChunks,
		"audio_duration": m.AudioDuration().String(),
		"video_digest":   m.VideoDigest[:16],
	}).Info("Recording sealed")
	return m, nil
}
