package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Backend implements Backend against one S3-compatible object-store
// location.
type S3Backend struct {
	client   *s3.Client
	location string
}

// NewS3Backend creates a client for the named location. Static credentials
// are used when provided, otherwise the default AWS credential chain applies
// (IAM roles, env vars).
func NewS3Backend(ctx context.Context, location string, cfg LocationConfig) (*S3Backend, error) {
	var awsCfg aws.Config
	var err error

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKey,
				cfg.SecretKey,
				"",
			)),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for location %q: %w", location, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.UsePathStyle {
			o.UsePathStyle = true
		}
	})

	return &S3Backend{client: client, location: location}, nil
}

// Kind implements Backend.
func (b *S3Backend) Kind() Kind { return KindS3 }

// Location returns the routing key this backend serves.
func (b *S3Backend) Location() string { return b.location }

// Put implements Backend.
func (b *S3Backend) Put(ctx context.Context, bucket, path string, data []byte) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to upload blob to s3: %w", err)
	}
	return nil
}

// Get implements Backend.
func (b *S3Backend) Get(ctx context.Context, bucket, path string) ([]byte, error) {
	result, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		if isNotFoundErr(err) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to get blob from s3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob body: %w", err)
	}
	return data, nil
}

// Delete implements Backend. S3 DeleteObject succeeds for missing keys, so
// the idempotency contract holds without an existence check.
func (b *S3Backend) Delete(ctx context.Context, bucket, path string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return fmt.Errorf("failed to delete blob from s3: %w", err)
	}
	return nil
}

func isNotFoundErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "NoSuchKey") || strings.Contains(msg, "NotFound")
}
