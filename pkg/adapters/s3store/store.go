// Package s3store uploads produced images to S3 or an S3-compatible service.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/user/moviebarcode/pkg/ports"
)

// ErrNoBucket is returned when no bucket is configured.
var ErrNoBucket = errors.New("s3store: bucket is required")

// Config holds the configuration for S3 uploads.
type Config struct {
	Bucket          string
	Region          string
	Prefix          string // Optional key prefix, e.g. "barcodes/"
	Endpoint        string // Optional: for custom S3-compatible endpoints
	AccessKeyID     string // Optional: AWS access key ID
	SecretAccessKey string // Optional: AWS secret access key
}

// Store implements ports.ObjectStore on an S3 bucket.
type Store struct {
	client   *s3.Client
	bucket   string
	region   string
	prefix   string
	endpoint string
}

// New creates a Store. Credentials come from cfg when both keys are set,
// otherwise from the default AWS credential chain.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, ErrNoBucket
	}

	var configOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		configOpts = append(configOpts, config.WithRegion(cfg.Region))
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &Store{
		client:   s3.NewFromConfig(awsCfg, clientOpts...),
		bucket:   cfg.Bucket,
		region:   awsCfg.Region,
		prefix:   cfg.Prefix,
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
	}, nil
}

// Key returns the object key used for name.
func (s *Store) Key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Put uploads data under the prefixed key and returns the object URL.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	fullKey := s.Key(key)

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fullKey),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("upload to S3: %w", err)
	}

	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, fullKey), nil
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, fullKey), nil
}

// Ensure Store implements ports.ObjectStore
var _ ports.ObjectStore = (*Store)(nil)
