// Package storage provides object storage backed webhook payload
// archiving. It is compatible with any S3-compatible backend (AWS S3,
// MinIO, RustFS, etc.)
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	appsync "github.com/agentcommerce/backend/internal/application/sync"
	"github.com/agentcommerce/backend/internal/domain/integration"
	infraconfig "github.com/agentcommerce/backend/internal/infrastructure/config"
)

// Ensure S3PayloadArchive implements PayloadArchive
var _ appsync.PayloadArchive = (*S3PayloadArchive)(nil)

// S3PayloadArchive stores raw webhook bodies in an S3 bucket, keyed by
// delivery coordinates so a payload can be located from its sync log
// entry.
type S3PayloadArchive struct {
	client *s3.Client
	bucket string
	logger *zap.Logger
}

// S3PayloadArchiveOption is a functional option for S3PayloadArchive
type S3PayloadArchiveOption func(*S3PayloadArchive)

// WithLogger sets a custom logger for S3PayloadArchive
func WithLogger(logger *zap.Logger) S3PayloadArchiveOption {
	return func(s *S3PayloadArchive) {
		s.logger = logger
	}
}

// NewS3PayloadArchive creates a new S3PayloadArchive from configuration.
func NewS3PayloadArchive(cfg *infraconfig.StorageConfig, opts ...S3PayloadArchiveOption) (*S3PayloadArchive, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("storage access key is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("storage secret key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if cfg.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid storage endpoint: %w", err)
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.BaseEndpoint = aws.String(endpoint)
	})

	archive := &S3PayloadArchive{
		client: client,
		bucket: cfg.Bucket,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(archive)
	}

	return archive, nil
}

// EnsureBucket creates the archive bucket if it doesn't exist.
// Call this during application startup.
func (s *S3PayloadArchive) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating archive bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		// Concurrent startup can lose the create race.
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	return nil
}

// ArchiveWebhook stores one raw delivery body.
func (s *S3PayloadArchive) ArchiveWebhook(ctx context.Context, organizationID string, platform integration.PlatformCode, topic, eventID string, body []byte) error {
	key := archiveKey(organizationID, platform, topic, eventID)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to archive webhook payload: %w", err)
	}

	s.logger.Debug("archived webhook payload",
		zap.String("key", key),
		zap.Int("bytes", len(body)))
	return nil
}

// archiveKey builds the object key for one delivery. Topic separators
// are flattened so the key stays a clean path segment.
func archiveKey(organizationID string, platform integration.PlatformCode, topic, eventID string) string {
	safeTopic := strings.NewReplacer("/", "_", ":", "_").Replace(topic)
	return fmt.Sprintf("webhooks/%s/%s/%s/%s.json", organizationID, platform, safeTopic, eventID)
}

// GetBucket returns the bucket name
func (s *S3PayloadArchive) GetBucket() string {
	return s.bucket
}
