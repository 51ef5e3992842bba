package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned when a key is absent or its entry has expired.
var ErrMiss = errors.New("cache miss")

// Cache is a byte-oriented cache with per-entry expiry. Implementations are
// safe for concurrent use. Get returns ErrMiss for absent keys so callers
// can distinguish a miss from an infrastructure failure.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
