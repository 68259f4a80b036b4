package cache

import (
	"context"
	"time"
)

// NoOpCache is a cache implementation that does nothing.
// It is the default: every lookup misses and nothing is retained.
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache instance
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// GetEmbedding always returns nil (cache miss)
func (c *NoOpCache) GetEmbedding(ctx context.Context, key string) (*Entry, error) {
	return nil, nil
}

// SetEmbedding does nothing and always succeeds
func (c *NoOpCache) SetEmbedding(ctx context.Context, key string, entry *Entry, ttl time.Duration) error {
	return nil
}

// Close does nothing and always succeeds
func (c *NoOpCache) Close() error {
	return nil
}
