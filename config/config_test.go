package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 44100, cfg.Audio.SampleRate)
	assert.Equal(t, 15, cfg.Video.FPS)
	assert.Equal(t, 500.0, cfg.Physics.Threshold)
	assert.Equal(t, 2*time.Second, cfg.Physics.InvincibleDuration)
	assert.Equal(t, filepath.Join("output", "output.wav"), cfg.Record.AudioPath())
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"stereo_audio", func(c *Config) { c.Audio.Channels = 2 }},
		{"zero_fps", func(c *Config) { c.Video.FPS = 0 }},
		{"unknown_compression", func(c *Config) { c.Video.Compression = "ultra" }},
		{"bad_camera_policy", func(c *Config) { c.Camera.FailurePolicy = "retry" }},
		{"zero_lives", func(c *Config) { c.Physics.Lives = 0 }},
		{"zero_scale", func(c *Config) { c.Physics.ImpulseScale = 0 }},
		{"publish_without_bucket", func(c *Config) { c.Publish.Provider = PublishS3 }},
		{"gain_too_high", func(c *Config) { c.Audio.InputGain = 9 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SCREAMJUMP_THRESHOLD":       "650",
		"SCREAMJUMP_LIVES":           "5",
		"SCREAMJUMP_COUNTDOWN":       "0s",
		"SCREAMJUMP_CAMERA_MIRROR":   "true",
		"SCREAMJUMP_RECORD_DIR":      "/tmp/sessions",
		"SCREAMJUMP_MUX_AUDIO_CODEC": "libopus",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, ApplyEnv(&cfg, lookup))

	assert.Equal(t, 650.0, cfg.Physics.Threshold)
	assert.Equal(t, 5, cfg.Physics.Lives)
	assert.Equal(t, time.Duration(0), cfg.Physics.CountdownDuration)
	assert.True(t, cfg.Camera.Mirror)
	assert.Equal(t, "/tmp/sessions", cfg.Record.Dir)
	assert.Equal(t, "libopus", cfg.Mux.AudioCodec)
}

func TestApplyEnvMalformed(t *testing.T) {
	lookup := func(k string) (string, bool) {
		if k == "SCREAMJUMP_LIVES" {
			return "three", true
		}
		return "", false
	}

	cfg := Default()
	err := ApplyEnv(&cfg, lookup)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "SCREAMJUMP_LIVES")
}

func TestLoadFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SCREAMJUMP_VIDEO_FPS=30\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("SCREAMJUMP_VIDEO_FPS") })

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Video.FPS)
}

func TestLoadMissingEnvFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, Default().Video.Width, cfg.Video.Width)
}
