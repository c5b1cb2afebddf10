package knowledge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hameedlatif/hospital-assistant/internal/config"
	"github.com/hameedlatif/hospital-assistant/pkg/logger"
)

// FetchArtifacts downloads the knowledge base artifacts from a MinIO bucket
// into the given local paths. Objects are looked up by the base name of each
// path, so a bucket built by the indexer and a local data directory stay
// interchangeable.
func FetchArtifacts(ctx context.Context, cfg config.MinIOConfig, log *logger.Logger, paths ...string) error {
	c, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	for _, path := range paths {
		object := filepath.Base(path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create artifact directory for '%s': %w", path, err)
		}
		log.Info(fmt.Sprintf("Fetching artifact '%s' from bucket '%s'", object, cfg.Bucket))
		if err := c.FGetObject(ctx, cfg.Bucket, object, path, minio.GetObjectOptions{}); err != nil {
			return fmt.Errorf("failed to fetch artifact '%s' from bucket '%s': %w", object, cfg.Bucket, err)
		}
	}
	return nil
}

// UploadArtifacts pushes freshly built artifacts to the MinIO bucket so other
// service instances can fetch them at startup.
func UploadArtifacts(ctx context.Context, cfg config.MinIOConfig, log *logger.Logger, paths ...string) error {
	c, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := c.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket '%s': %w", cfg.Bucket, err)
	}
	if !exists {
		if err := c.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket '%s': %w", cfg.Bucket, err)
		}
	}

	for _, path := range paths {
		object := filepath.Base(path)
		log.Info(fmt.Sprintf("Uploading artifact '%s' to bucket '%s'", object, cfg.Bucket))
		if _, err := c.FPutObject(ctx, cfg.Bucket, object, path, minio.PutObjectOptions{}); err != nil {
			return fmt.Errorf("failed to upload artifact '%s' to bucket '%s': %w", object, cfg.Bucket, err)
		}
	}
	return nil
}
