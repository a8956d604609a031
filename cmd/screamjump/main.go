// Package main runs one recorded scream-jump session against the local
// microphone and camera.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opd-ai/screamjump"
	"github.com/opd-ai/screamjump/audio"
	"github.com/opd-ai/screamjump/compositor"
	"github.com/opd-ai/screamjump/config"
	"github.com/opd-ai/screamjump/level"
	"github.com/opd-ai/screamjump/logging"
	"github.com/opd-ai/screamjump/publish"
	"github.com/opd-ai/screamjump/record"
	"github.com/opd-ai/screamjump/video"
	"github.com/sirupsen/logrus"
)

// Exit codes.
const (
	exitOK = iota
	exitFailure
	exitUsage
	exitResources
)

// CLIConfig holds command-line overrides.
type CLIConfig struct {
	envFile   string
	assetsDir string
	outputDir string
	device    string
	timeLimit time.Duration
	noMux     bool
	help      bool
}

func parseCLIFlags() *CLIConfig {
	c := &CLIConfig{}
	flag.StringVar(&c.envFile, "env", ".env", "Environment file with SCREAMJUMP_ settings")
	flag.StringVar(&c.assetsDir, "assets", "", "Directory of sprite PNGs (default: flat colors)")
	flag.StringVar(&c.outputDir, "out", "", "Output directory (overrides SCREAMJUMP_RECORD_DIR)")
	flag.StringVar(&c.device, "device", "", "Camera device (overrides SCREAMJUMP_CAMERA_DEVICE)")
	flag.DurationVar(&c.timeLimit, "time-limit", 0, "Stop the session after this long (0: until the game ends)")
	flag.BoolVar(&c.noMux, "no-mux", false, "Keep the raw recordings without combining them")
	flag.BoolVar(&c.help, "help", false, "Show help message")
	flag.Parse()
	return c
}

func printUsage() {
	fmt.Println("Scream Jump")
	fmt.Println("===========")
	fmt.Println()
	fmt.Println("Shout to jump. The session is recorded and combined into one video.")
	fmt.Println()
	fmt.Printf("Usage:\n  %s [options]\n\nOptions:\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	os.Exit(run())
}

func run() int {
	cli := parseCLIFlags()
	if cli.help {
		printUsage()
		return exitOK
	}

	cfg, err := config.Load(cli.envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration: %v\n", err)
		return exitUsage
	}
	applyOverrides(&cfg, cli)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "configuration: %v\n", err)
		return exitUsage
	}

	closer, err := logging.Setup(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		return exitUsage
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts, cleanup, err := buildOptions(ctx, cfg, cli)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "main",
			"error":    err.Error(),
		}).Error("Startup failed")
		return exitFailure
	}
	defer cleanup()

	session, err := screamjump.NewSession(opts)
	if err != nil {
		opts.Audio.Close()
		opts.Camera.Close()
		logrus.WithFields(logrus.Fields{
			"function": "main",
			"error":    err.Error(),
		}).Error("Session could not start")
		if errors.Is(err, record.ErrResourceExhausted) {
			return exitResources
		}
		return exitFailure
	}

	if cli.timeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cli.timeLimit)
		defer cancel()
	}

	res, err := session.Run(ctx)
	if res != nil {
		printResult(res)
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "main",
			"error":    err.Error(),
		}).Error("Session failed")
		return exitFailure
	}
	return exitOK
}

func applyOverrides(cfg *config.Config, cli *CLIConfig) {
	if cli.outputDir != "" {
		cfg.Record.Dir = cli.outputDir
	}
	if cli.device != "" {
		cfg.Camera.Device = cli.device
	}
	if cli.noMux {
		cfg.Mux.Enabled = false
	}
}

// buildOptions opens the devices and optional collaborators. The returned
// cleanup releases what the session does not own.
func buildOptions(ctx context.Context, cfg config.Config, cli *CLIConfig) (*screamjump.Options, func(), error) {
	opts := screamjump.NewOptions()
	opts.Config = cfg
	opts.Layout = level.Default()

	if cli.assetsDir != "" {
		sprites, err := compositor.LoadSprites(cli.assetsDir)
		if err != nil {
			return nil, nil, fmt.Errorf("load sprites: %w", err)
		}
		opts.Sprites = sprites
	}

	pub, err := publish.New(ctx, cfg.Publish)
	if err != nil {
		return nil, nil, err
	}
	opts.Publisher = pub
	cleanup := func() {
		if pub != nil {
			pub.Close()
		}
	}

	src, err := audio.NewPulseSource(audio.PulseConfig{
		SampleRate:      cfg.Audio.SampleRate,
		FramesPerBuffer: cfg.Audio.FramesPerBuffer,
		QueueDepth:      cfg.Audio.QueueDepth,
		ReadTimeout:     cfg.Audio.ReadTimeout,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	opts.Audio = src

	cam, err := video.OpenFFmpegCamera(ctx, video.CameraOptions{
		FFmpegPath:  cfg.Camera.FFmpegPath,
		InputFormat: cfg.Camera.InputFormat,
		Device:      cfg.Camera.Device,
		Width:       cfg.Video.Width,
		Height:      cfg.Video.Height,
		FPS:         cfg.Video.FPS,
		Timeout:     cfg.Camera.Timeout,
	})
	if err != nil {
		src.Close()
		cleanup()
		return nil, nil, err
	}
	opts.Camera = cam

	return opts, cleanup, nil
}

func printResult(res *screamjump.Result) {
	fmt.Printf("Outcome:  %s\n", res.Outcome)
	fmt.Printf("Score:    %d\n", res.Score)
	fmt.Printf("Frames:   %d recorded, %d skipped\n", res.FramesRecorded, res.FramesSkipped)
	if res.Combined {
		fmt.Printf("Output:   %s\n", res.OutputPath)
	}
	if res.PublishedURL != "" {
		fmt.Printf("Uploaded: %s\n", res.PublishedURL)
	}
}
