package interfaces

import (
	"context"
	"time"
)

// CacheProvider stores resolved media descriptors and caption content between
// resolution passes. Implementations may ignore the TTL for purely in-memory
// session caches.
type CacheProvider interface {
	Get(ctx context.Context, key string) (any, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
