// Package backup provides S3-compatible upload of database backups.
// When S3 is not configured (empty bucket), the NoopUploader is used and
// all uploads are skipped, keeping the system in local-only mode.
package backup

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hyperengineering/stockin/internal/config"
)

// Uploader uploads database backup files.
type Uploader interface {
	// Upload stores the backup file at filePath under the given object key.
	Upload(ctx context.Context, key, filePath string) error
}

// s3Client defines the minimal minio.Client surface used by S3Uploader.
// This interface enables testing with mock implementations.
type s3Client interface {
	FPutObject(ctx context.Context, bucket, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// S3Uploader uploads backups to S3-compatible storage.
type S3Uploader struct {
	client s3Client
	bucket string
}

// Upload stores the backup file under key in the configured bucket.
func (u *S3Uploader) Upload(ctx context.Context, key, filePath string) error {
	opts := minio.PutObjectOptions{ContentType: "application/octet-stream"}
	if _, err := u.client.FPutObject(ctx, u.bucket, key, filePath, opts); err != nil {
		return fmt.Errorf("upload backup to S3: %w", err)
	}
	return nil
}

// NoopUploader is used when S3 storage is not configured.
type NoopUploader struct{}

// Upload is a no-op when S3 is not configured.
func (u *NoopUploader) Upload(ctx context.Context, key, filePath string) error {
	return nil
}

// NewUploader creates the appropriate Uploader based on configuration.
// Returns NoopUploader when bucket is empty, S3Uploader otherwise.
func NewUploader(cfg config.BackupStorageConfig) (Uploader, error) {
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

	return &S3Uploader{client: client, bucket: cfg.Bucket}, nil
}
