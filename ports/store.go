package ports

import (
	"context"
	"time"
)

// Store is the durable key-value contract used for session persistence and
// backend artifacts. Get returns core.ErrKeyNotFound for missing keys.
type Store interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}
