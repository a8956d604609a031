// Package logging configures the process-wide logrus logger from a
// config.LogConfig. Every other package logs through logrus directly.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/opd-ai/screamjump/config"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup applies level, formatter and output to the standard logrus logger.
// When cfg.File is set, output goes to stderr and to a size-rotated file.
// The returned closer releases the file and is a no-op otherwise.
func Setup(cfg config.LogConfig) (io.Closer, error) {
	return Configure(logrus.StandardLogger(), cfg, os.Stderr)
}

// Configure is Setup for an arbitrary logger and console writer.
func Configure(logger *logrus.Logger, cfg config.LogConfig, console io.Writer) (io.Closer, error) {
	level := cfg.Level
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	logger.SetLevel(lvl)

	switch cfg.Format {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	if cfg.File == "" {
		logger.SetOutput(console)
		return nopCloser{}, nil
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}
	logger.SetOutput(io.MultiWriter(console, rotator))

	logger.WithFields(logrus.Fields{
		"function":    "Configure",
		"file":        cfg.File,
		"max_size_mb": cfg.MaxSizeMB,
		"level":       lvl.String(),
	}).Debug("Log file rotation enabled")

	return rotator, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
