// Package storage wraps the S3 object store used for snapshot backups and
// catalog payloads handed off to the reindex queue.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/shopgraph/backend/internal/util"
)

// NewS3Client builds a client from the AWS_* environment. Returns nil when
// no endpoint is configured, which disables every S3-backed feature.
func NewS3Client(ctx context.Context) *s3.Client {
	endpoint := util.GetEnv("AWS_ENDPOINT")
	if endpoint == "" {
		return nil
	}

	region := util.GetEnvString("AWS_REGION", "us-east-1")
	accessKey := util.GetEnv("AWS_ACCESS_KEY")
	secretKey := util.GetEnv("AWS_SECRET_KEY")

	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(region),
		config.WithBaseEndpoint(endpoint),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey,
			secretKey,
			"",
		)),
	)
	if err != nil {
		return nil
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
}

// GetObject downloads an object from the configured bucket.
func GetObject(ctx context.Context, client *s3.Client, key string) ([]byte, error) {
	bucket := util.GetEnvString("AWS_BUCKET", "shopgraph")
	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer result.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, result.Body); err != nil {
		return nil, fmt.Errorf("failed to read object contents: %w", err)
	}
	return buf.Bytes(), nil
}

// PutObject uploads an object to the configured bucket. Transient failures
// are retried a few times before giving up.
func PutObject(ctx context.Context, client *s3.Client, key string, body []byte, contentType string) error {
	bucket := util.GetEnvString("AWS_BUCKET", "shopgraph")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return util.RetryErr(3, func() error {
		_, err := client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(body),
			ContentType: aws.String(contentType),
		})
		if err != nil {
			return fmt.Errorf("failed to upload object to S3: %w", err)
		}
		return nil
	})
}

// DeleteObject removes an object from the configured bucket.
func DeleteObject(ctx context.Context, client *s3.Client, key string) error {
	bucket := util.GetEnvString("AWS_BUCKET", "shopgraph")
	_, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object from S3: %w", err)
	}
	return nil
}

// SnapshotBackup adapts the S3 client to the vector store's backup hook.
type SnapshotBackup struct {
	client *s3.Client
}

// NewSnapshotBackup returns nil when client is nil so callers can skip the
// hook without a second configuration check.
func NewSnapshotBackup(client *s3.Client) *SnapshotBackup {
	if client == nil {
		return nil
	}
	return &SnapshotBackup{client: client}
}

func (b *SnapshotBackup) Put(ctx context.Context, key string, body []byte) error {
	return PutObject(ctx, b.client, key, body, "application/json")
}

func (b *SnapshotBackup) Delete(ctx context.Context, key string) error {
	return DeleteObject(ctx, b.client, key)
}
