// Package objectstore uploads export artifacts to S3-compatible storage.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/lanebid/drayage-portal/internal/infra/resilience"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("infra/objectstore")

// S3Options configures the uploader. Endpoint is only set for
// S3-compatible services (MinIO, LocalStack); it switches to path-style
// addressing. Empty keys fall back to the default AWS credential chain.
type S3Options struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
}

// S3 puts objects into one bucket.
type S3 struct {
	client   *s3.Client
	bucket   string
	region   string
	endpoint string
	guard    *resilience.Guard
	logger   *zap.Logger
}

// NewS3 builds the S3 client. It does not contact the service.
func NewS3(ctx context.Context, opts S3Options, cfg resilience.Config, logger *zap.Logger) (*S3, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3: bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}
	sdkConfig, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimRight(opts.Endpoint, "/")
	client := s3.NewFromConfig(sdkConfig, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3{
		client:   client,
		bucket:   opts.Bucket,
		region:   opts.Region,
		endpoint: endpoint,
		guard:    resilience.NewGuard("s3", cfg),
		logger:   logger,
	}, nil
}

// Put uploads body under key and returns the object URL.
func (u *S3) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	ctx, span := tracer.Start(ctx, "S3.Put")
	defer span.End()
	span.SetAttributes(attribute.String("s3.bucket", u.bucket), attribute.String("s3.key", key))

	// Buffered so every retry sends the full payload.
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read upload body: %w", err)
	}

	err = u.guard.Do(ctx, "put", func(ctx context.Context) error {
		_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(u.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType),
		})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("upload %s to s3: %w", key, err)
	}

	url := u.ObjectURL(key)
	u.logger.Info("object uploaded",
		zap.String("bucket", u.bucket),
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)
	return url, nil
}

// ObjectURL is where key is reachable: path-style under a custom endpoint,
// virtual-hosted style on AWS.
func (u *S3) ObjectURL(key string) string {
	if u.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", u.endpoint, u.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key)
}
