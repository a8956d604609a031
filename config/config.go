package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// ErrInvalidConfig indicates a configuration value is out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// Camera failure policies.
const (
	// CameraSkip drops compositing for a tick whose camera read failed.
	CameraSkip = "skip"
	// CameraReuse composites over the last good camera frame instead.
	CameraReuse = "reuse"
)

// Publish providers.
const (
	PublishNone = ""
	PublishS3   = "s3"
	PublishGCS  = "gcs"
)

// AudioConfig describes the microphone stream.
type AudioConfig struct {
	SampleRate      int
	Channels        int
	FramesPerBuffer int
	// InputGain is a linear multiplier applied to every captured buffer.
	InputGain float64
	// ReadTimeout bounds a single device read.
	ReadTimeout time.Duration
	// ErrorBackoff paces the sampler after a failed read.
	ErrorBackoff time.Duration
	// QueueDepth is the number of device fragments held before overrun drops.
	QueueDepth int
}

// VideoConfig describes composited output frames.
type VideoConfig struct {
	Width  int
	Height int
	FPS    int
	// Compression selects the zstd level for stored frames:
	// "fastest", "default", "better" or "best".
	Compression string
}

// CameraConfig describes the live camera source.
type CameraConfig struct {
	FFmpegPath    string
	InputFormat   string
	Device        string
	Timeout       time.Duration
	Mirror        bool
	FailurePolicy string
}

// PhysicsConfig carries the gameplay tuning.
type PhysicsConfig struct {
	Threshold          float64
	ImpulseBase        float64
	ImpulseScale       float64
	ImpulseCap         float64
	Gravity            float64
	ScrollSpeed        float64
	AutoAdvance        float64
	ScorePerTick       int
	Lives              int
	InvincibleDuration time.Duration
	BannerDuration     time.Duration
	CountdownDuration  time.Duration
}

// RecordConfig describes where the session is persisted.
type RecordConfig struct {
	Dir       string
	VideoFile string
	AudioFile string
	// MinFreeBytes is the free disk space required to start a session.
	MinFreeBytes uint64
}

// VideoPath returns the absolute-or-relative path of the video sink.
func (r RecordConfig) VideoPath() string { return filepath.Join(r.Dir, r.VideoFile) }

// AudioPath returns the path of the audio sink.
func (r RecordConfig) AudioPath() string { return filepath.Join(r.Dir, r.AudioFile) }

// MuxConfig describes the post-session combine step.
type MuxConfig struct {
	Enabled      bool
	FFmpegPath   string
	OutputFile   string
	VideoCodec   string
	AudioCodec   string
	AudioBitRate int
	// SealWait bounds how long Combine waits for the seal manifest.
	SealWait time.Duration
}

// PublishConfig describes optional upload of the combined file.
type PublishConfig struct {
	Provider        string
	Bucket          string
	Prefix          string
	Region          string
	CredentialsFile string
	Timeout         time.Duration
}

// LogConfig describes logging output.
type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Config is the complete session configuration.
type Config struct {
	Audio   AudioConfig
	Video   VideoConfig
	Camera  CameraConfig
	Physics PhysicsConfig
	Record  RecordConfig
	Mux     MuxConfig
	Publish PublishConfig
	Log     LogConfig
}

// OutputPath returns the path of the combined file.
func (c Config) OutputPath() string { return filepath.Join(c.Record.Dir, c.Mux.OutputFile) }

// Default returns the reference configuration.
func Default() Config {
	return Config{
		Audio: AudioConfig{
			SampleRate:      44100,
			Channels:        1,
			FramesPerBuffer: 1048,
			InputGain:       1.0,
			ReadTimeout:     500 * time.Millisecond,
			ErrorBackoff:    10 * time.Millisecond,
			QueueDepth:      32,
		},
		Video: VideoConfig{
			Width:       640,
			Height:      480,
			FPS:         15,
			Compression: "fastest",
		},
		Camera: CameraConfig{
			FFmpegPath:    "ffmpeg",
			InputFormat:   "v4l2",
			Device:        "/dev/video0",
			Timeout:       50 * time.Millisecond,
			Mirror:        false,
			FailurePolicy: CameraSkip,
		},
		Physics: PhysicsConfig{
			Threshold:          500,
			ImpulseBase:        5,
			ImpulseScale:       250,
			ImpulseCap:         15,
			Gravity:            1,
			ScrollSpeed:        5,
			AutoAdvance:        1,
			ScorePerTick:       1,
			Lives:              3,
			InvincibleDuration: 2 * time.Second,
			BannerDuration:     3 * time.Second,
			CountdownDuration:  3 * time.Second,
		},
		Record: RecordConfig{
			Dir:          "output",
			VideoFile:    "output.sjv",
			AudioFile:    "output.wav",
			MinFreeBytes: 256 << 20,
		},
		Mux: MuxConfig{
			Enabled:      true,
			FFmpegPath:   "ffmpeg",
			OutputFile:   "final_output.mp4",
			VideoCodec:   "libx264",
			AudioCodec:   "aac",
			AudioBitRate: 128000,
			SealWait:     5 * time.Second,
		},
		Publish: PublishConfig{
			Timeout: 2 * time.Minute,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
	}
}

// Validate reports the first out-of-range value.
func (c Config) Validate() error {
	checks := []struct {
		ok   bool
		what string
	}{
		{c.Audio.SampleRate > 0, "audio sample rate must be positive"},
		{c.Audio.Channels == 1, "audio must be mono"},
		{c.Audio.FramesPerBuffer > 0, "frames per buffer must be positive"},
		{c.Audio.InputGain >= 0 && c.Audio.InputGain <= 4, "input gain must be within [0, 4]"},
		{c.Audio.QueueDepth > 0, "audio queue depth must be positive"},
		{c.Video.Width > 0 && c.Video.Height > 0, "video size must be positive"},
		{c.Video.FPS > 0, "video fps must be positive"},
		{validCompression(c.Video.Compression), "unknown video compression level"},
		{c.Camera.Timeout > 0, "camera timeout must be positive"},
		{c.Camera.FailurePolicy == CameraSkip || c.Camera.FailurePolicy == CameraReuse, "camera failure policy must be skip or reuse"},
		{c.Physics.ImpulseScale > 0, "impulse scale must be positive"},
		{c.Physics.ImpulseCap >= 0, "impulse cap must not be negative"},
		{c.Physics.Lives > 0, "lives must be positive"},
		{c.Physics.ScrollSpeed >= 0, "scroll speed must not be negative"},
		{c.Record.Dir != "", "record dir must be set"},
		{c.Record.VideoFile != "" && c.Record.AudioFile != "", "record file names must be set"},
		{!c.Mux.Enabled || c.Mux.OutputFile != "", "mux output file must be set"},
		{c.Publish.Provider == PublishNone || c.Publish.Provider == PublishS3 || c.Publish.Provider == PublishGCS, "unknown publish provider"},
		{c.Publish.Provider == PublishNone || c.Publish.Bucket != "", "publish bucket must be set"},
	}
	for _, check := range checks {
		if !check.ok {
			return fmt.Errorf("%w: %s", ErrInvalidConfig, check.what)
		}
	}
	return nil
}

func validCompression(level string) bool {
	switch level {
	case "fastest", "default", "better", "best":
		return true
	}
	return false
}
