// Package storage is the object-store gateway. It issues presigned upload
// descriptors and signed read URLs and deletes objects; file bytes move
// only between the client and the object store, never through this process.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultReadTTL bounds signed read URLs. It must exceed the worst-case
// latency of any downstream processing stage, which reads the object
// through such a URL.
const DefaultReadTTL = 600 * time.Second

// UploadTTL bounds presigned upload descriptors.
const UploadTTL = 15 * time.Minute

// UploadDescriptor is a time- and size-bounded credential letting a client
// POST bytes directly to object storage.
type UploadDescriptor struct {
	PostURL   string            `json:"post_url"`
	Fields    map[string]string `json:"fields"`
	MaxBytes  int64             `json:"max_bytes"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// Gateway is the interface to the object store.
type Gateway interface {
	// PresignUpload issues an upload descriptor for exactly one key, with
	// the size ceiling enforced by the store itself.
	PresignUpload(ctx context.Context, key string, maxBytes int64) (*UploadDescriptor, error)

	// SignedReadURL issues a read URL for the object valid for ttl.
	SignedReadURL(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Delete removes the object. Callers treat failures as best-effort:
	// log and move on.
	Delete(ctx context.Context, key string) error
}

// GatewayType represents the gateway backend type
type GatewayType string

const (
	GatewayTypeS3    GatewayType = "s3"
	GatewayTypeLocal GatewayType = "local"
)

// GatewayConfig holds configuration for the gateway
type GatewayConfig struct {
	Type         GatewayType
	Endpoint     string // Custom endpoint for MinIO / S3-compatible stores
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	LocalBase    string // Base URL for the local dev signer
}

// NewGateway creates a gateway instance based on configuration
func NewGateway(cfg GatewayConfig) (Gateway, error) {
	switch cfg.Type {
	case GatewayTypeS3:
		if cfg.Bucket == "" {
			return nil, errors.New("bucket is required for S3 storage")
		}
		return NewS3Gateway(cfg)
	case GatewayTypeLocal:
		return NewLocalGateway(cfg.LocalBase), nil
	default:
		return nil, fmt.Errorf("unknown gateway type: %s", cfg.Type)
	}
}
