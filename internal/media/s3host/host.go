// Package s3host stores media objects in an S3-compatible bucket (AWS S3 or MinIO).
package s3host

import (
	"context"
	"errors"
	"fmt"
	"io"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// Config holds construction parameters. Credentials fall back to the default chain.
type Config struct {
	Region          string
	Bucket          string
	Endpoint        string // optional, e.g. a MinIO URL
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
}

// Host implements media.Host over a single bucket.
type Host struct {
	client *s3.Client
	bucket string
}

// New builds an S3 client from cfg.
func New(ctx context.Context, cfg Config) (*Host, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewWithClient(client, cfg.Bucket), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *s3.Client, bucket string) *Host {
	return &Host{client: client, bucket: bucket}
}

// Put uploads the object, refusing to overwrite an existing key.
func (h *Host) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	exists, err := h.exists(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("object %s already exists", key)
	}

	input := &s3.PutObjectInput{Bucket: &h.bucket, Key: &key, Body: body}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := h.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// Delete removes the object and reports whether it existed beforehand.
func (h *Host) Delete(ctx context.Context, key string) (bool, error) {
	exists, err := h.exists(ctx, key)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}
	if _, err := h.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &h.bucket, Key: &key}); err != nil {
		return false, fmt.Errorf("delete object: %w", err)
	}
	return true, nil
}

func (h *Host) exists(ctx context.Context, key string) (bool, error) {
	_, err := h.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &h.bucket, Key: &key})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("head object: %w", err)
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
