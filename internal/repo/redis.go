package repo

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

type Redis struct{ C *redis.Client }

func NewRedis(addr string) *Redis {
	return &Redis{C: redis.NewClient(&redis.Options{Addr: addr})}
}

func (r *Redis) Ping(ctx context.Context) error { return r.C.Ping(ctx).Err() }
func (r *Redis) Close() error                   { return r.C.Close() }

// MarkOnce records key for ttl and reports whether this call was the first to do so.
func (r *Redis) MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return r.C.SetNX(ctx, key, 1, ttl).Result()
}

// Forget drops a key set by MarkOnce so the work it guarded can be retried.
func (r *Redis) Forget(ctx context.Context, key string) error {
	return r.C.Del(ctx, key).Err()
}
