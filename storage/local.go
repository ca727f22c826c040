package storage

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"
)

// LocalGateway is a development stand-in that fabricates descriptor and URL
// shapes against a fixed base URL without talking to any object store. It
// backs tests and lets the API run without S3 credentials. Handlers call
// it concurrently, so the deletion record is guarded by a mutex.
type LocalGateway struct {
	base string

	mu      sync.Mutex
	deleted map[string]bool
}

// NewLocalGateway creates a local gateway rooted at base.
func NewLocalGateway(base string) *LocalGateway {
	return &LocalGateway{
		base:    base,
		deleted: make(map[string]bool),
	}
}

// PresignUpload fabricates an upload descriptor for key.
func (g *LocalGateway) PresignUpload(ctx context.Context, key string, maxBytes int64) (*UploadDescriptor, error) {
	return &UploadDescriptor{
		PostURL: g.base,
		Fields: map[string]string{
			"key": key,
		},
		MaxBytes:  maxBytes,
		ExpiresAt: time.Now().Add(UploadTTL),
	}, nil
}

// SignedReadURL fabricates a read URL for key.
func (g *LocalGateway) SignedReadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	expires := time.Now().Add(ttl).Unix()
	return fmt.Sprintf("%s/%s?expires=%d", g.base, url.PathEscape(key), expires), nil
}

// Delete records the deletion.
func (g *LocalGateway) Delete(ctx context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleted[key] = true
	return nil
}

// Deleted reports whether key was deleted through this gateway.
func (g *LocalGateway) Deleted(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.deleted[key]
}
