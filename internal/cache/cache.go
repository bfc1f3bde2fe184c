package cache

import (
	"context"
	"time"
)

// Cache is a simple key value store with per entry expiration. Run scoped
// lookups (access token, tax rate id, default discount grid) go through it
// so that repeated external calls are avoided within a run.
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration)
	Delete(ctx context.Context, key string)
	Flush(ctx context.Context)
}
