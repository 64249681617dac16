// Package storage keeps uploaded CV files in an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/monu322/ai-job-applier-app/internal/config"
)

// CVStore stores CV uploads and returns a URL for each stored object.
type CVStore interface {
	Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, objectName string) error
	// ObjectName maps a URL returned by Upload back to its object name.
	ObjectName(objectURL string) (string, bool)
}

var _ CVStore = (*MinIOStore)(nil)

// MinIOStore is a CVStore backed by MinIO or any S3-compatible service.
type MinIOStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
	logger  zerolog.Logger
}

// NewMinIOStore connects to the configured endpoint and creates the bucket
// if it does not exist.
func NewMinIOStore(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (*MinIOStore, error) {
	if !cfg.Enabled() {
		return nil, errors.New("storage endpoint is not configured")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	s := &MinIOStore{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: BaseURL(cfg),
		logger:  logger.With().Str("component", "storage").Str("bucket", cfg.Bucket).Logger(),
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MinIOStore) ensureBucket(ctx context.Context) error {
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
	s.logger.Info().Msg("created bucket")
	return nil
}

// Upload writes data under objectName and returns its URL.
func (s *MinIOStore) Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	info, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", objectName, err)
	}
	s.logger.Debug().
		Str("object", objectName).
		Int64("size", info.Size).
		Str("etag", info.ETag).
		Msg("uploaded CV")
	return ObjectURL(s.baseURL, objectName), nil
}

// Delete removes objectName. Missing objects are not an error.
func (s *MinIOStore) Delete(ctx context.Context, objectName string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", objectName, err)
	}
	return nil
}

// ObjectName maps a URL returned by Upload back to its object name.
func (s *MinIOStore) ObjectName(objectURL string) (string, bool) {
	return ObjectNameFromURL(s.baseURL, objectURL)
}

// BaseURL is the URL prefix of objects in the configured bucket: the
// public URL when set, otherwise the endpoint itself.
func BaseURL(cfg config.StorageConfig) string {
	base := cfg.PublicURL
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + cfg.Endpoint
	}
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(cfg.Bucket)
}

// ObjectURL joins base and an object name, escaping each path segment.
func ObjectURL(base, objectName string) string {
	segments := strings.Split(strings.Trim(objectName, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return base + "/" + strings.Join(segments, "/")
}

// ObjectNameFromURL reverses ObjectURL for URLs under base.
func ObjectNameFromURL(base, objectURL string) (string, bool) {
	rest, ok := strings.CutPrefix(objectURL, base+"/")
	if !ok || rest == "" {
		return "", false
	}
	name, err := url.PathUnescape(rest)
	if err != nil {
		return "", false
	}
	return name, true
}
