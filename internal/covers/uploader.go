// Package covers provides S3-compatible cover image upload and pre-signed
// URL generation. When S3 is not configured (empty bucket), the NoopUploader
// is used and all S3 operations are skipped, keeping the system local-only.
package covers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/shelfwise/shelfwise/internal/config"
)

// ErrNotConfigured is returned when cover image storage is not configured.
var ErrNotConfigured = errors.New("cover storage not configured")

// Uploader stores cover images and generates pre-signed download URLs.
type Uploader interface {
	// Upload stores the cover image for the given book.
	Upload(ctx context.Context, bookID string, body io.Reader, size int64, contentType string) error

	// PresignedURL returns a pre-signed URL for downloading the cover.
	// Returns ErrNotConfigured when storage is not configured.
	PresignedURL(ctx context.Context, bookID string) (url string, expiry time.Time, err error)
}

// s3Client defines the minimal minio.Client operations used by S3Uploader.
// This interface enables testing with mock implementations.
type s3Client interface {
	PutObject(ctx context.Context, bucket, objectName string, body io.Reader, size int64, contentType string) error
	PresignedGetObject(ctx context.Context, bucket, objectName string, expiry time.Duration) (*url.URL, error)
}

// minioClientWrapper wraps *minio.Client to satisfy the s3Client interface.
// Necessary because minio.Client methods take concrete option types that
// differ from our simplified interface.
type minioClientWrapper struct {
	client *minio.Client
}

func (w *minioClientWrapper) PutObject(ctx context.Context, bucket, objectName string, body io.Reader, size int64, contentType string) error {
	putOpts := minio.PutObjectOptions{
		ContentType: contentType,
	}
	_, err := w.client.PutObject(ctx, bucket, objectName, body, size, putOpts)
	return err
}

func (w *minioClientWrapper) PresignedGetObject(ctx context.Context, bucket, objectName string, expiry time.Duration) (*url.URL, error) {
	return w.client.PresignedGetObject(ctx, bucket, objectName, expiry, nil)
}

// S3Uploader stores cover images in S3-compatible storage.
type S3Uploader struct {
	client    s3Client
	bucket    string
	urlExpiry time.Duration
}

// Upload stores the cover image for the given book.
func (u *S3Uploader) Upload(ctx context.Context, bookID string, body io.Reader, size int64, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := objectKey(bookID)
	if err := u.client.PutObject(ctx, u.bucket, key, body, size, contentType); err != nil {
		return fmt.Errorf("upload cover to S3: %w", err)
	}
	return nil
}

// PresignedURL returns a pre-signed GET URL for the cover.
func (u *S3Uploader) PresignedURL(ctx context.Context, bookID string) (string, time.Time, error) {
	key := objectKey(bookID)
	presigned, err := u.client.PresignedGetObject(ctx, u.bucket, key, u.urlExpiry)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate pre-signed URL: %w", err)
	}
	expiry := time.Now().Add(u.urlExpiry)
	return presigned.String(), expiry, nil
}

// NoopUploader is used when cover storage is not configured.
// Upload returns ErrNotConfigured so callers can surface the misconfiguration.
type NoopUploader struct{}

// Upload returns ErrNotConfigured when storage is not configured.
func (u *NoopUploader) Upload(ctx context.Context, bookID string, body io.Reader, size int64, contentType string) error {
	return ErrNotConfigured
}

// PresignedURL returns ErrNotConfigured when storage is not configured.
func (u *NoopUploader) PresignedURL(ctx context.Context, bookID string) (string, time.Time, error) {
	return "", time.Time{}, ErrNotConfigured
}

// NewUploader creates the appropriate Uploader based on configuration.
// Returns NoopUploader when bucket is empty, S3Uploader otherwise.
func NewUploader(cfg config.CoversConfig) (Uploader, error) {
	if cfg.Bucket == "" {
		return &NoopUploader{}, nil
	}

	useSSL := true
	if cfg.UseSSL != nil {
		useSSL = *cfg.UseSSL
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 client: %w", err)
	}

	return &S3Uploader{
		client:    &minioClientWrapper{client: client},
		bucket:    cfg.Bucket,
		urlExpiry: time.Duration(cfg.URLExpiry),
	}, nil
}

// objectKey returns the S3 object key for a book's cover image.
// Convention: covers/{book_id}
func objectKey(bookID string) string {
	return "covers/" + bookID
}
