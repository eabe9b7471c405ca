package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/jazetjaz01/streamdi/internal/config"
)

// ErrObjectExists is returned when an upload would overwrite an existing
// object. Callers are expected to pick unique names via ObjectName.
var ErrObjectExists = errors.New("object already exists")

// Store wraps a MinIO client for media blobs (avatars, banners, video
// files, thumbnails). Uploads return a stable public locator.
type Store struct {
	client         *minio.Client
	bucket         string
	publicEndpoint string
}

// New connects to the object store and ensures the bucket exists with a
// public-read policy so returned locators are directly servable.
func New(ctx context.Context, cfg config.StorageConfig) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage init: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("bucket create: %w", err)
		}
		policy := `{
			"Version": "2012-10-17",
			"Statement": [
				{
					"Effect": "Allow",
					"Principal": "*",
					"Action": "s3:GetObject",
					"Resource": "arn:aws:s3:::` + cfg.Bucket + `/*"
				}
			]
		}`
		if err := client.SetBucketPolicy(ctx, cfg.Bucket, policy); err != nil {
			return nil, fmt.Errorf("bucket policy: %w", err)
		}
	}

	return &Store{
		client:         client,
		bucket:         cfg.Bucket,
		publicEndpoint: cfg.PublicEndpoint,
	}, nil
}

// Upload stores a blob under objectName and returns its public URL.
// A name collision fails rather than silently replacing the object.
func (s *Store) Upload(ctx context.Context, objectName string, src io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.StatObject(ctx, s.bucket, objectName, minio.StatObjectOptions{})
	if err == nil {
		return "", fmt.Errorf("%s: %w", objectName, ErrObjectExists)
	}
	var minioErr minio.ErrorResponse
	if !errors.As(err, &minioErr) || minioErr.Code != "NoSuchKey" {
		return "", fmt.Errorf("stat %s: %w", objectName, err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, objectName, src, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", objectName, err)
	}

	return s.URL(objectName), nil
}

// URL returns the public retrieval locator for an object.
func (s *Store) URL(objectName string) string {
	return s.publicEndpoint + "/" + s.bucket + "/" + objectName
}

// ObjectName builds an upload name unique enough to avoid overwrites:
// target handle, a purpose tag (avatar, banner, media, thumb) and a
// nanosecond timestamp, keeping the original file extension.
func ObjectName(handle, purpose, filename string) string {
	return fmt.Sprintf("%s-%s-%d%s", handle, purpose, time.Now().UnixNano(), path.Ext(filename))
}
