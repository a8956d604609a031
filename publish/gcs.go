package publish

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/opd-ai/screamjump/config"
	"google.golang.org/api/option"
)

// objectWriterFunc opens a writer for one object.
type objectWriterFunc func(ctx context.Context, bucket, key, contentType string) io.WriteCloser

// GCSPublisher uploads to a Cloud Storage bucket.
type GCSPublisher struct {
	client  *storage.Client
	open    objectWriterFunc
	bucket  string
	prefix  string
	timeout time.Duration
	now     func() time.Time
}

// NewGCSPublisher creates a storage client, using cfg.CredentialsFile when
// set and application default credentials otherwise.
func NewGCSPublisher(ctx context.Context, cfg config.PublishConfig) (*GCSPublisher, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: gcs client: %w", ErrPublish, err)
	}

	p := newGCSPublisher(func(ctx context.Context, bucket, key, contentType string) io.WriteCloser {
		w := client.Bucket(bucket).Object(key).NewWriter(ctx)
		w.ContentType = contentType
		return w
	}, cfg)
	p.client = client
	return p, nil
}

func newGCSPublisher(open objectWriterFunc, cfg config.PublishConfig) *GCSPublisher {
	return &GCSPublisher{
		open:    open,
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
		timeout: cfg.Timeout,
		now:     time.Now,
	}
}

// Publish uploads localPath and returns its gs:// URL.
func (p *GCSPublisher) Publish(ctx context.Context, localPath string) (string, error) {
	started := time.Now()
	up, err := openUpload(localPath, p.prefix, p.now())
	if err != nil {
		return "", err
	}
	defer up.file.Close()

	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	w := p.open(ctx, p.bucket, up.key, ContentType(localPath))
	if _, err := io.Copy(w, up.file); err != nil {
		w.Close()
		return "", fmt.Errorf("%w: gcs write %s: %w", ErrPublish, up.key, err)
	}
	// the object is committed by Close
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("%w: gcs commit %s: %w", ErrPublish, up.key, err)
	}

	location := fmt.Sprintf("gs://%s/%s", p.bucket, up.key)
	logUploaded("gcs", location, up.size, started)
	return location, nil
}

// Close closes the storage client.
func (p *GCSPublisher) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}
