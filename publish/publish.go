package publish

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/opd-ai/screamjump/config"
	"github.com/sirupsen/logrus"
)

var (
	// ErrUnknownProvider indicates an unsupported provider name.
	ErrUnknownProvider = errors.New("unknown publish provider")
	// ErrPublish indicates a failed upload.
	ErrPublish = errors.New("publish failed")
)

// Publisher uploads a local file and returns its remote location.
type Publisher interface {
	Publish(ctx context.Context, localPath string) (string, error)
	Close() error
}

// New returns the publisher selected by cfg.Provider, or nil when
// publishing is disabled.
func New(ctx context.Context, cfg config.PublishConfig) (Publisher, error) {
	switch cfg.Provider {
	case config.PublishNone:
		return nil, nil
	case config.PublishS3:
		return NewS3Publisher(ctx, cfg)
	case config.PublishGCS:
		return NewGCSPublisher(ctx, cfg)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
}

// ObjectKey names the object for localPath uploaded at now.
func ObjectKey(prefix, localPath string, now time.Time) string {
	name := now.UTC().Format("20060102-150405") + "-" + filepath.Base(localPath)
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".mov":  "video/quicktime",
}

// ContentType guesses the MIME type from the file extension.
func ContentType(localPath string) string {
	ext := strings.ToLower(filepath.Ext(localPath))
	if t, ok := videoTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

type upload struct {
	file *os.File
	size int64
	key  string
}

func openUpload(localPath, prefix string, now time.Time) (*upload, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPublish, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %w", ErrPublish, err)
	}
	return &upload{file: f, size: st.Size(), key: ObjectKey(prefix, localPath, now)}, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func logUploaded(provider, location string, size int64, started time.Time) {
	logrus.WithFields(logrus.Fields{
		"function": "Publish",
		"provider": provider,
		"location": location,
		"bytes":    size,
		"elapsed":  time.Since(started).String(),
	}).Info("Session published")
}
