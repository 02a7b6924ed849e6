package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Cache defines the key/value backend behind the session store
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// ErrCacheMiss is returned when a key is not found in cache
var ErrCacheMiss = errors.New("cache miss")

// Key joins key parts with ':'
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
