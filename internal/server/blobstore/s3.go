package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/gophblog/internal/filex"
	"github.com/dmitrijs2005/gophblog/internal/server/config"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
)

// S3Storage uploads blobs to an S3-compatible bucket (MinIO in development).
type S3Storage struct {
	client    *s3.Client
	bucket    string
	publicURL string
	now       func() time.Time
}

// NewS3Storage builds a client from static credentials in cfg.
func NewS3Storage(ctx context.Context, cfg *config.Config) (*S3Storage, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,     // MINIO_ROOT_USER
			cfg.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config error: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	publicURL := cfg.S3PublicURL
	if publicURL != "" && !strings.HasSuffix(publicURL, "/") {
		publicURL += "/"
	}

	return &S3Storage{client: client, bucket: cfg.S3Bucket, publicURL: publicURL, now: time.Now}, nil
}

// StorageKey returns a date-sharded, collision-free object key.
func StorageKey(ext string, d time.Time) string {
	return fmt.Sprintf("posts/%d/%d/%d/%v%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}

// Store uploads data and returns publicURL + key.
func (s *S3Storage) Store(ctx context.Context, data []byte) (string, error) {
	ext := filex.ImageExt(data)
	if ext == "" {
		return "", ErrNotImage
	}
	key := StorageKey(ext, s.now())

	_, err := putObject(s.client, ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(http.DetectContentType(data)),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put error: %w", err)
	}

	return s.publicURL + key, nil
}
