// Package storage wraps the private S3 photo bucket. Objects are never
// public; every read and write goes through a short-lived presigned URL.
package storage

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/Novice130/At-tayyibun/internal/config"
)

// PhotoStore generates presigned URLs against the photo bucket.
type PhotoStore struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

// New creates a photo store from the application config.
func New(ctx context.Context, cfg *config.Config) (*PhotoStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &PhotoStore{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.S3Bucket,
	}, nil
}

// SignedGetURL returns a presigned GET URL for an object. The URL carries
// its own expiry independent of any share token that referenced the object.
func (p *PhotoStore) SignedGetURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error) {
	req, err := p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(objectKey),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = ttl
	})
	if err != nil {
		return "", fmt.Errorf("failed to presign GET: %w", err)
	}
	return req.URL, nil
}

// SignedPutURL returns a presigned PUT URL for a fresh upload.
func (p *PhotoStore) SignedPutURL(ctx context.Context, objectKey, contentType string, ttl time.Duration) (string, error) {
	req, err := p.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(objectKey),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = ttl
	})
	if err != nil {
		return "", fmt.Errorf("failed to presign PUT: %w", err)
	}
	return req.URL, nil
}

// Delete removes an object from the bucket.
func (p *PhotoStore) Delete(ctx context.Context, objectKey string) error {
	_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", objectKey, err)
	}
	return nil
}

// ObjectKey builds the bucket key for a user's photo upload.
func ObjectKey(userID uuid.UUID, photoID uuid.UUID, filename string) string {
	ext := path.Ext(filename)
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("photos/%s/%s%s", userID, photoID, ext)
}
