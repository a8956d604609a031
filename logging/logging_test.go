package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/opd-ai/screamjump/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureConsoleOnly(t *testing.T) {
	logger := logrus.New()
	var buf bytes.Buffer

	closer, err := Configure(logger, config.LogConfig{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	logger.WithField("function", "test").Debug("hello")

	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestConfigureWithFile(t *testing.T) {
	logger := logrus.New()
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "session.log")

	closer, err := Configure(logger, config.LogConfig{Level: "info", File: path, MaxSizeMB: 1}, &buf)
	require.NoError(t, err)

	logger.Info("recorded")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "recorded")
	assert.Contains(t, buf.String(), "recorded")
}

func TestConfigureRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LogConfig
	}{
		{"bad_level", config.LogConfig{Level: "loud"}},
		{"bad_format", config.LogConfig{Format: "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Configure(logrus.New(), tt.cfg, &bytes.Buffer{})
			assert.Error(t, err)
		})
	}
}
