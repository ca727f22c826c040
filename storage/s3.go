package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Gateway implements Gateway for AWS S3 and S3-compatible stores (MinIO).
type S3Gateway struct {
	presigner *s3.PresignClient
	client    *s3.Client
	bucket    string
}

// NewS3Gateway creates a new S3 gateway instance
func NewS3Gateway(cfg GatewayConfig) (*S3Gateway, error) {
	ctx := context.Background()

	var awsCfg aws.Config
	var err error

	// Load AWS config
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		// Use explicit credentials
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKey,
				cfg.SecretKey,
				"",
			)),
		)
	} else {
		// Use default credentials (from environment, IAM role, etc.)
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
		)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Gateway{
		presigner: s3.NewPresignClient(client),
		client:    client,
		bucket:    cfg.Bucket,
	}, nil
}

// PresignUpload issues a presigned POST scoped to exactly one key. The
// content-length-range condition makes the store reject oversized uploads,
// so the size ceiling holds even though this process never sees the bytes.
func (g *S3Gateway) PresignUpload(ctx context.Context, key string, maxBytes int64) (*UploadDescriptor, error) {
	req, err := g.presigner.PresignPostObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignPostOptions) {
		opts.Expires = UploadTTL
		opts.Conditions = []interface{}{
			[]interface{}{"content-length-range", 0, maxBytes},
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload for %s: %w", key, err)
	}

	return &UploadDescriptor{
		PostURL:   req.URL,
		Fields:    req.Values,
		MaxBytes:  maxBytes,
		ExpiresAt: time.Now().Add(UploadTTL),
	}, nil
}

// SignedReadURL issues a time-bounded GET URL for the object.
func (g *S3Gateway) SignedReadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := g.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to sign read URL for %s: %w", key, err)
	}

	return req.URL, nil
}

// Delete removes an object from S3.
func (g *S3Gateway) Delete(ctx context.Context, key string) error {
	_, err := g.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})

	if err != nil {
		return fmt.Errorf("failed to delete %s from S3: %w", key, err)
	}

	return nil
}
