package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/anonto42/prehome/backend/pkg/config"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// S3Storage uploads to an S3-compatible bucket (AWS S3, Cloudflare R2, MinIO)
type S3Storage struct {
	uploader *s3manager.Uploader
	bucket   string
}

// NewS3Storage creates the bucket uploader
func NewS3Storage(cfg config.StorageConfig) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required for s3 storage")
	}

	awsConfig := &aws.Config{
		Region:      aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
	}
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}

	return &S3Storage{uploader: s3manager.NewUploader(sess), bucket: cfg.Bucket}, nil
}

// Save uploads r as a public-read object named name
func (s *S3Storage) Save(ctx context.Context, name string, r io.Reader, contentType string) (string, error) {
	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(name),
		Body:        r,
		ContentType: aws.String(contentType),
		ACL:         aws.String("public-read"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}
	return out.Location, nil
}
