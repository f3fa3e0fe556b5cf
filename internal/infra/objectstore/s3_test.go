package objectstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/lanebid/drayage-portal/internal/infra/objectstore"
	"github.com/lanebid/drayage-portal/internal/infra/resilience"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testResilience = resilience.Config{MaxRetries: 0, InitialBackoff: time.Millisecond, MaxConcurrency: 1}

func TestNewS3_RequiresBucket(t *testing.T) {
	_, err := objectstore.NewS3(context.Background(), objectstore.S3Options{Region: "us-east-1"}, testResilience, zap.NewNop())
	assert.Error(t, err)
}

func TestObjectURL(t *testing.T) {
	aws, err := objectstore.NewS3(context.Background(), objectstore.S3Options{
		Bucket: "lane-exports", Region: "us-east-2", AccessKeyID: "AKID", SecretAccessKey: "secret",
	}, testResilience, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "https://lane-exports.s3.us-east-2.amazonaws.com/exports/bids.csv", aws.ObjectURL("exports/bids.csv"))

	minio, err := objectstore.NewS3(context.Background(), objectstore.S3Options{
		Bucket: "lane-exports", Region: "us-east-1", AccessKeyID: "AKID", SecretAccessKey: "secret",
		Endpoint: "http://localhost:9000/",
	}, testResilience, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/lane-exports/exports/bids.csv", minio.ObjectURL("exports/bids.csv"))
}
