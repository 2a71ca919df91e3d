// Package storage uploads backup artifacts to S3-compatible object storage.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/sharkusmanch/rethinkdb-backup/internal/domain"
)

const archiveContentType = "application/gzip"

// S3Options describes how to reach the object store.
type S3Options struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string

	// Endpoint overrides the AWS endpoint, for S3-compatible stores.
	Endpoint     string
	UsePathStyle bool
}

// S3Uploader implements domain.Uploader on top of the AWS SDK.
type S3Uploader struct {
	client *s3.Client
	logger *slog.Logger
}

// S3Option configures an S3Uploader.
type S3Option func(*S3Uploader)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) S3Option {
	return func(u *S3Uploader) {
		u.logger = logger
	}
}

// NewS3Uploader builds an uploader with static credentials.
func NewS3Uploader(ctx context.Context, opts S3Options, options ...S3Option) (*S3Uploader, error) {
	u := &S3Uploader{logger: slog.Default()}
	for _, opt := range options {
		opt(u)
	}

	// The backup retry loop sits above the SDK, so the SDK makes one attempt.
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		),
		awsconfig.WithRetryMaxAttempts(1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	u.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	return u, nil
}

// Upload stores the file at path under key in bucket.
func (u *S3Uploader) Upload(ctx context.Context, bucket, key, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()

	u.logger.Info("uploading artifact to S3", "file", path, "bucket", bucket, "key", key)

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(archiveContentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to s3://%s/%s: %w", path, bucket, key, err)
	}

	u.logger.Debug("upload complete", "bucket", bucket, "key", key)
	return nil
}

// Validate checks that bucket exists and is accessible.
func (u *S3Uploader) Validate(ctx context.Context, bucket string) error {
	if _, err := u.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err != nil {
		return fmt.Errorf("bucket %s not accessible: %w", bucket, err)
	}
	return nil
}

// Ensure S3Uploader implements domain.Uploader.
var _ domain.Uploader = (*S3Uploader)(nil)
