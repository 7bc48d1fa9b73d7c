package cache

import (
	"context"
	"time"
)

// Store is a byte-oriented cache. The price simulator writes the latest
// quote per symbol through it so reads don't have to hit Postgres on every
// client poll.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
