package evidence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"

	s3infra "github.com/Emmanuelamanga/cos-platform/internal/infra/s3"
)

var errNoClient = errors.New("s3 client is not configured")

// S3Storage keeps evidence blobs in one bucket. The bucket check is retried
// on every call until it has succeeded once.
type S3Storage struct {
	client *minio.Client
	bucket string
	region string

	mu      sync.Mutex
	ensured bool
}

func NewS3Storage(client *minio.Client, bucket, region string) *S3Storage {
	return &S3Storage{
		client: client,
		bucket: strings.TrimSpace(bucket),
		region: strings.TrimSpace(region),
	}
}

func (s *S3Storage) EnsureBucket(ctx context.Context) error {
	if s.client == nil {
		return errNoClient
	}
	if s.bucket == "" {
		return errors.New("evidence bucket name is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensured {
		return nil
	}
	if err := s3infra.EnsureBucket(ctx, s.client, s.bucket, s.region); err != nil {
		return err
	}
	s.ensured = true
	return nil
}

func (s *S3Storage) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	switch {
	case s.client == nil:
		return errNoClient
	case key == "", body == nil, size <= 0:
		return ErrValidation
	}

	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := s.client.PutObject(ctx, s.bucket, key, body, size, opts); err != nil {
		return fmt.Errorf("upload evidence %s: %w", key, err)
	}
	return nil
}

// PresignGet returns a time-limited download link for key.
func (s *S3Storage) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	switch {
	case s.client == nil:
		return "", errNoClient
	case key == "":
		return "", ErrValidation
	}
	if ttl <= 0 {
		ttl = defaultSignedURLTTL
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("sign evidence %s: %w", key, err)
	}
	return u.String(), nil
}

// Delete is a no-op without a client so compensation never masks the
// original upload error.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	if s.client == nil || key == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove evidence %s: %w", key, err)
	}
	return nil
}
