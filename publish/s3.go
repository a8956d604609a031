package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/opd-ai/screamjump/config"
)

// s3API is the subset of the S3 client used for uploads.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher uploads to an S3 bucket.
type S3Publisher struct {
	client  s3API
	bucket  string
	prefix  string
	timeout time.Duration
	now     func() time.Time
}

// NewS3Publisher loads the default AWS configuration for cfg.Region.
func NewS3Publisher(ctx context.Context, cfg config.PublishConfig) (*S3Publisher, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: load aws config: %w", ErrPublish, err)
	}
	return newS3Publisher(s3.NewFromConfig(awsCfg), cfg), nil
}

func newS3Publisher(client s3API, cfg config.PublishConfig) *S3Publisher {
	return &S3Publisher{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
		timeout: cfg.Timeout,
		now:     time.Now,
	}
}

// Publish uploads localPath and returns its s3:// URL.
func (p *S3Publisher) Publish(ctx context.Context, localPath string) (string, error) {
	started := time.Now()
	up, err := openUpload(localPath, p.prefix, p.now())
	if err != nil {
		return "", err
	}
	defer up.file.Close()

	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(up.key),
		Body:          up.file,
		ContentLength: aws.Int64(up.size),
		ContentType:   aws.String(ContentType(localPath)),
	})
	if err != nil {
		return "", fmt.Errorf("%w: s3 put %s: %w", ErrPublish, up.key, err)
	}

	location := fmt.Sprintf("s3://%s/%s", p.bucket, up.key)
	logUploaded("s3", location, up.size, started)
	return location, nil
}

// Close releases nothing; the S3 client holds no open resources.
func (p *S3Publisher) Close() error { return nil }
