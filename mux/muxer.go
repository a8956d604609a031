package mux

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/opd-ai/screamjump/audio"
	"github.com/opd-ai/screamjump/record"
	"github.com/opd-ai/screamjump/video"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Runner runs an encoder process with stdin attached.
type Runner interface {
	Run(ctx context.Context, name string, args []string, stdin io.Reader) error
}

// ExecRunner runs processes with os/exec.
type ExecRunner struct{}

// Run starts name and waits for it. The error carries the tail of stderr.
func (ExecRunner) Run(ctx context.Context, name string, args []string, stdin io.Reader) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		tail := stderr.Bytes()
		if len(tail) > 512 {
			tail = tail[len(tail)-512:]
		}
		return fmt.Errorf("%s: %w: %s", name, err, bytes.TrimSpace(tail))
	}
	return nil
}

// Config configures a Muxer.
type Config struct {
	FFmpegPath   string
	VideoCodec   string
	AudioCodec   string
	AudioBitRate int
	// SealWait bounds how long Combine waits for the seal manifest.
	SealWait time.Duration
	// PollInterval paces the manifest wait.
	PollInterval time.Duration
}

// Muxer combines sealed recordings.
type Muxer struct {
	cfg    Config
	runner Runner
}

// New creates a muxer. A nil runner uses ExecRunner.
func New(cfg Config, runner Runner) *Muxer {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.VideoCodec == "" {
		cfg.VideoCodec = "libx264"
	}
	if cfg.AudioCodec == "" {
		cfg.AudioCodec = "aac"
	}
	if cfg.AudioBitRate <= 0 {
		cfg.AudioBitRate = 128000
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 50 * time.Millisecond
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Muxer{cfg: cfg, runner: runner}
}

// Combine writes outputPath from a sealed video container and WAV file.
// Source files are never modified.
func (m *Muxer) Combine(ctx context.Context, videoPath, audioPath, outputPath string) error {
	start := time.Now()
	logger := logrus.WithFields(logrus.Fields{
		"function": "Muxer.Combine",
		"video":    videoPath,
		"audio":    audioPath,
		"output":   outputPath,
	})
	logger.Info("Combining recording")

	manifest, err := m.waitForSeal(ctx, videoPath)
	if err != nil {
		logger.WithField("error", err.Error()).Error("Combine aborted")
		return err
	}
	if err := m.verify(manifest, videoPath, audioPath); err != nil {
		logger.WithField("error", err.Error()).Error("Combine aborted")
		return err
	}

	f, err := os.Open(videoPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMissingInput, err)
	}
	defer f.Close()
	frames, err := video.NewFrameReader(f)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptInput, err)
	}
	defer frames.Close()

	tmp := TempPath(outputPath)
	args := m.Args(frames.Header(), manifest, audioPath, outputPath, tmp)
	if err := m.encode(ctx, frames, args); err != nil {
		os.Remove(tmp)
		logger.WithField("error", err.Error()).Error("Encoder failed")
		return err
	}

	if err := os.Rename(tmp, outputPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: publish output: %w", ErrMerge, err)
	}

	logger.WithFields(logrus.Fields{
		"frames":  manifest.Frames,
		"elapsed": time.Since(start).String(),
	}).Info("Recording combined")
	return nil
}

func (m *Muxer) waitForSeal(ctx context.Context, videoPath string) (*record.Manifest, error) {
	path := record.ManifestPath(videoPath)
	deadline := time.NewTimer(m.cfg.SealWait)
	defer deadline.Stop()
	poll := time.NewTicker(m.cfg.PollInterval)
	defer poll.Stop()

	for {
		if _, err := os.Stat(path); err == nil {
			manifest, err := record.ReadManifest(path)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrCorruptInput, err)
			}
			return manifest, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrNotSealed, ctx.Err())
		case <-deadline.C:
			if _, err := os.Stat(videoPath); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrMissingInput, err)
			}
			return nil, fmt.Errorf("%w: no manifest after %s", ErrNotSealed, m.cfg.SealWait)
		case <-poll.C:
		}
	}
}

func (m *Muxer) verify(manifest *record.Manifest, videoPath, audioPath string) error {
	checks := []struct {
		kind   string
		path   string
		digest string
	}{
		{"video", videoPath, manifest.VideoDigest},
		{"audio", audioPath, manifest.AudioDigest},
	}
	for _, c := range checks {
		if _, err := os.Stat(c.path); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrMissingInput, c.kind, err)
		}
		got, err := record.FileDigest(c.path)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrCorruptInput, c.kind, err)
		}
		if got != c.digest {
			return fmt.Errorf("%w: %s digest %s does not match manifest", ErrCorruptInput, c.kind, got[:16])
		}
	}

	if _, err := audio.InspectWAV(audioPath, manifest.SampleRate); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptInput, err)
	}
	return nil
}

// Args returns the encoder arguments for one combine.
func (m *Muxer) Args(hdr video.ContainerHeader, manifest *record.Manifest, audioPath, outputPath, tmpPath string) []string {
	fps := hdr.FPS
	if fps <= 0 {
		fps = 15
	}
	duration := float64(manifest.Frames) / float64(fps)

	bitRate := m.cfg.AudioBitRate
	var extra []string
	if m.cfg.AudioCodec == "libopus" {
		bw := BandwidthForSampleRate(manifest.SampleRate)
		bitRate = OpusBitRate(bw, bitRate)
		extra = []string{
			"-ar", strconv.Itoa(OpusOutputRate(bw)),
			"-cutoff", strconv.Itoa(OpusCutoff(bw)),
		}
	}

	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "rawvideo",
		"-pix_fmt", video.FormatRGB24.String(),
		"-video_size", fmt.Sprintf("%dx%d", hdr.Width, hdr.Height),
		"-framerate", strconv.Itoa(fps),
		"-i", "pipe:0",
		"-i", audioPath,
		"-map", "0:v:0", "-map", "1:a:0",
		"-c:v", m.cfg.VideoCodec,
		"-pix_fmt", "yuv420p",
		"-c:a", m.cfg.AudioCodec,
		"-b:a", strconv.Itoa(bitRate),
	}
	args = append(args, extra...)
	args = append(args,
		"-t", strconv.FormatFloat(duration, 'f', 3, 64),
		"-f", ContainerFormat(outputPath),
		tmpPath,
	)
	return args
}

// encode feeds every frame to the encoder's stdin while it runs.
func (m *Muxer) encode(ctx context.Context, frames *video.FrameReader, args []string) error {
	pr, pw := io.Pipe()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var fed uint64
		for {
			fr, err := frames.Next()
			if errors.Is(err, io.EOF) {
				pw.Close()
				logrus.WithFields(logrus.Fields{
					"function": "Muxer.encode",
					"frames":   fed,
				}).Debug("All frames fed to encoder")
				return nil
			}
			if err != nil {
				err = fmt.Errorf("%w: %w", ErrCorruptInput, err)
				pw.CloseWithError(err)
				return err
			}
			if _, err := pw.Write(fr.RGB); err != nil {
				return fmt.Errorf("%w: feed frame %d: %w", ErrEncodeFailed, fr.Tick, err)
			}
			fed++
		}
	})

	g.Go(func() error {
		err := m.runner.Run(gctx, m.cfg.FFmpegPath, args, pr)
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrEncodeFailed, err)
		}
		// unblocks the feeder when the encoder stops reading early
		pr.CloseWithError(io.ErrClosedPipe)
		return err
	})

	return g.Wait()
}

// TempPath returns where the encoder writes before the output is renamed
// into place.
func TempPath(outputPath string) string {
	return filepath.Clean(outputPath + ".partial")
}
