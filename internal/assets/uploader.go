// Package assets abstracts object storage for user photos, QR seed images,
// and the admin logo.
package assets

import (
	"context"
	"fmt"
	"io"
	"path"
	"sync"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"certmint/internal/platform/config"
)

const maxUploadSize = 10 << 20 // 10MB, matches the upload form limit

// Uploader stores a single object and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, folder, filename string, content io.Reader, size int64, contentType string) (string, error)
}

// S3Uploader talks to any S3-compatible endpoint.
type S3Uploader struct {
	client *minio.Client
	cfg    config.S3Config
}

// NewS3 builds the uploader and makes sure the bucket exists. Returns nil if
// no endpoint is configured; required uploads then fail loudly at call time.
func NewS3(cfg config.S3Config) (*S3Uploader, error) {
	if cfg.Endpoint == "" {
		return nil, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("object storage client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return &S3Uploader{client: client, cfg: cfg}, nil
}

func (u *S3Uploader) Upload(ctx context.Context, folder, filename string, content io.Reader, size int64, contentType string) (string, error) {
	if size > maxUploadSize {
		return "", fmt.Errorf("file too large: %d bytes", size)
	}

	objectName := folder + "/" + uuid.NewString() + path.Ext(filename)
	_, err := u.client.PutObject(ctx, u.cfg.Bucket, objectName, content, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	scheme := "https"
	if !u.cfg.UseSSL {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, u.cfg.Endpoint, u.cfg.Bucket, objectName), nil
}

// MemoryUploader is the test double; it records uploads and hands back
// deterministic URLs.
type MemoryUploader struct {
	mu      sync.Mutex
	Objects map[string][]byte
}

func NewMemory() *MemoryUploader {
	return &MemoryUploader{Objects: make(map[string][]byte)}
}

func (u *MemoryUploader) Upload(_ context.Context, folder, filename string, content io.Reader, size int64, _ string) (string, error) {
	if size > maxUploadSize {
		return "", fmt.Errorf("file too large: %d bytes", size)
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	objectName := folder + "/" + filename
	u.Objects[objectName] = data
	return "memory://" + objectName, nil
}
