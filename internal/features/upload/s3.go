package upload

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"accounts-backend/internal/common/config"
)

// S3Storage stores uploads in an S3-compatible bucket. References are
// object keys partitioned by folder and date.
type S3Storage struct {
	client *s3.Client
	bucket string
}

func NewS3Storage(ctx context.Context, cfg *config.Config) (*S3Storage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Storage.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.Storage.S3AccessKey,
			cfg.Storage.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.S3BaseEndpoint)
		}
		// Path-style addressing for MinIO-like endpoints.
		o.UsePathStyle = cfg.Storage.S3BaseEndpoint != ""
	})

	return &S3Storage{client: client, bucket: cfg.Storage.S3Bucket}, nil
}

func (s *S3Storage) Store(ctx context.Context, field, filename string, content io.Reader) (string, error) {
	key := storageKey(FolderForField(field), filename)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   content,
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object: %w", err)
	}

	return key, nil
}

func storageKey(folder, filename string) string {
	d := time.Now()
	return fmt.Sprintf("%s/%d/%02d/%02d/%s-%s", folder, d.Year(), d.Month(), d.Day(), uuid.New(), filename)
}
