package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// EnvPrefix prefixes every variable read by Load.
const EnvPrefix = "SCREAMJUMP_"

type envBinding struct {
	name string
	set  func(c *Config, v string) error
}

func stringVar(dst func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*dst(c) = v
		return nil
	}
}

func intVar(dst func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst(c) = n
		return nil
	}
}

func uintVar(dst func(*Config) *uint64) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return err
		}
		*dst(c) = n
		return nil
	}
}

func floatVar(dst func(*Config) *float64) func(*Config, string) error {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*dst(c) = f
		return nil
	}
}

func boolVar(dst func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*dst(c) = b
		return nil
	}
}

func durationVar(dst func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst(c) = d
		return nil
	}
}

var envBindings = []envBinding{
	{"AUDIO_FRAMES_PER_BUFFER", intVar(func(c *Config) *int { return &c.Audio.FramesPerBuffer })},
	{"AUDIO_INPUT_GAIN", floatVar(func(c *Config) *float64 { return &c.Audio.InputGain })},
	{"AUDIO_READ_TIMEOUT", durationVar(func(c *Config) *time.Duration { return &c.Audio.ReadTimeout })},
	{"AUDIO_QUEUE_DEPTH", intVar(func(c *Config) *int { return &c.Audio.QueueDepth })},
	{"VIDEO_FPS", intVar(func(c *Config) *int { return &c.Video.FPS })},
	{"VIDEO_COMPRESSION", stringVar(func(c *Config) *string { return &c.Video.Compression })},
	{"CAMERA_FFMPEG", stringVar(func(c *Config) *string { return &c.Camera.FFmpegPath })},
	{"CAMERA_FORMAT", stringVar(func(c *Config) *string { return &c.Camera.InputFormat })},
	{"CAMERA_DEVICE", stringVar(func(c *Config) *string { return &c.Camera.Device })},
	{"CAMERA_TIMEOUT", durationVar(func(c *Config) *time.Duration { return &c.Camera.Timeout })},
	{"CAMERA_MIRROR", boolVar(func(c *Config) *bool { return &c.Camera.Mirror })},
	{"CAMERA_FAILURE_POLICY", stringVar(func(c *Config) *string { return &c.Camera.FailurePolicy })},
	{"THRESHOLD", floatVar(func(c *Config) *float64 { return &c.Physics.Threshold })},
	{"IMPULSE_SCALE", floatVar(func(c *Config) *float64 { return &c.Physics.ImpulseScale })},
	{"IMPULSE_CAP", floatVar(func(c *Config) *float64 { return &c.Physics.ImpulseCap })},
	{"LIVES", intVar(func(c *Config) *int { return &c.Physics.Lives })},
	{"COUNTDOWN", durationVar(func(c *Config) *time.Duration { return &c.Physics.CountdownDuration })},
	{"RECORD_DIR", stringVar(func(c *Config) *string { return &c.Record.Dir })},
	{"RECORD_MIN_FREE_BYTES", uintVar(func(c *Config) *uint64 { return &c.Record.MinFreeBytes })},
	{"MUX_ENABLED", boolVar(func(c *Config) *bool { return &c.Mux.Enabled })},
	{"MUX_FFMPEG", stringVar(func(c *Config) *string { return &c.Mux.FFmpegPath })},
	{"MUX_OUTPUT", stringVar(func(c *Config) *string { return &c.Mux.OutputFile })},
	{"MUX_AUDIO_CODEC", stringVar(func(c *Config) *string { return &c.Mux.AudioCodec })},
	{"MUX_SEAL_WAIT", durationVar(func(c *Config) *time.Duration { return &c.Mux.SealWait })},
	{"PUBLISH_PROVIDER", stringVar(func(c *Config) *string { return &c.Publish.Provider })},
	{"PUBLISH_BUCKET", stringVar(func(c *Config) *string { return &c.Publish.Bucket })},
	{"PUBLISH_PREFIX", stringVar(func(c *Config) *string { return &c.Publish.Prefix })},
	{"PUBLISH_REGION", stringVar(func(c *Config) *string { return &c.Publish.Region })},
	{"PUBLISH_CREDENTIALS", stringVar(func(c *Config) *string { return &c.Publish.CredentialsFile })},
	{"LOG_LEVEL", stringVar(func(c *Config) *string { return &c.Log.Level })},
	{"LOG_FORMAT", stringVar(func(c *Config) *string { return &c.Log.Format })},
	{"LOG_FILE", stringVar(func(c *Config) *string { return &c.Log.File })},
}

// Load returns Default overlaid with envFile (if it exists) and the process
// environment. Variables already set in the environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Default()
	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	logrus.WithFields(logrus.Fields{
		"function":   "Load",
		"env_file":   envFile,
		"record_dir": cfg.Record.Dir,
		"fps":        cfg.Video.FPS,
	}).Debug("Configuration loaded")

	return cfg, nil
}

// ApplyEnv overlays variables returned by lookup onto cfg.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	for _, b := range envBindings {
		v, ok := lookup(EnvPrefix + b.name)
		if !ok || v == "" {
			continue
		}
		if err := b.set(cfg, v); err != nil {
			return fmt.Errorf("%w: %s%s=%q: %v", ErrInvalidConfig, EnvPrefix, b.name, v, err)
		}
	}
	return nil
}
