package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"docuvault/internal/config"
)

// Replica receives a copy of every backup archive in addition to the local
// destinations. Implementations must be safe for concurrent use.
type Replica interface {
	// Upload stores the archive at path under the given object name.
	Upload(ctx context.Context, name, path string) error
}

// minioReplica uploads archives to an S3-compatible bucket (MinIO, AWS S3).
type minioReplica struct {
	client *minio.Client
	bucket string
}

// NewMinIOReplica creates a cloud replica backed by an S3-compatible backend.
// It validates connectivity and ensures the bucket exists.
func NewMinIOReplica(cfg config.MinIOConfig) (Replica, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return &minioReplica{client: cli, bucket: cfg.Bucket}, nil
}

func (m *minioReplica) Upload(ctx context.Context, name, path string) error {
	_, err := m.client.FPutObject(ctx, m.bucket, name, path, minio.PutObjectOptions{
		ContentType: "application/zip",
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	return nil
}
