package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/nao1215/docmask/internal/config"
	"github.com/nao1215/docmask/internal/document"
)

// ErrMissingEndpoint is returned when MinIO upload is configured without an endpoint.
var ErrMissingEndpoint = errors.New("minio endpoint is required")

// contentType of uploaded outputs.
const contentType = "text/plain; charset=utf-8"

// MinioSink uploads masked output to an S3-compatible bucket.
type MinioSink struct {
	client    *minio.Client
	bucket    string
	prefix    string
	overwrite bool
	logger    *slog.Logger
}

// MinioOption configures a MinioSink.
type MinioOption func(*MinioSink)

// WithMinioLogger sets the logger.
func WithMinioLogger(logger *slog.Logger) MinioOption {
	return func(s *MinioSink) {
		s.logger = logger
	}
}

// WithPrefix stores objects under prefix.
func WithPrefix(prefix string) MinioOption {
	return func(s *MinioSink) {
		s.prefix = strings.Trim(prefix, "/")
	}
}

// WithMinioOverwrite allows replacing existing objects.
func WithMinioOverwrite(overwrite bool) MinioOption {
	return func(s *MinioSink) {
		s.overwrite = overwrite
	}
}

// NewMinioSink creates a MinioSink. No request is made until EnsureBucket
// or Write is called.
func NewMinioSink(cfg config.MinioConfig, opts ...MinioOption) (*MinioSink, error) {
	if cfg.Endpoint == "" {
		return nil, ErrMissingEndpoint
	}
	if cfg.Bucket == "" {
		return nil, config.ErrMissingBucket
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	s := &MinioSink{
		client: client,
		bucket: cfg.Bucket,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (s *MinioSink) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	s.logger.Info("bucket created", "bucket", s.bucket)
	return nil
}

// ObjectName returns the object key for documentID.
func (s *MinioSink) ObjectName(documentID string) string {
	name := document.OutputName(documentID)
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Write implements OutputSink.
func (s *MinioSink) Write(ctx context.Context, documentID, finalText string) error {
	object := s.ObjectName(documentID)
	if !s.overwrite {
		_, err := s.client.StatObject(ctx, s.bucket, object, minio.StatObjectOptions{})
		if err == nil {
			return fmt.Errorf("%w: %s/%s", ErrOutputExists, s.bucket, object)
		}
		if minio.ToErrorResponse(err).Code != "NoSuchKey" {
			return fmt.Errorf("failed to check %s: %w", object, err)
		}
	}
	info, err := s.client.PutObject(ctx, s.bucket, object, strings.NewReader(finalText), int64(len(finalText)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", object, err)
	}
	s.logger.Debug("output uploaded", "document", documentID, "bucket", s.bucket, "object", object, "etag", info.ETag)
	return nil
}
