// Package cache holds short-lived lookups such as resolved creator handles.
// Redis is used when configured, otherwise an in-process map.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"fanboxviewer/internal/config"
)

type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Open picks the store for cfg. Keys are namespaced under prefix.
func Open(ctx context.Context, cfg config.CacheConfig, prefix string) (Store, error) {
	if cfg.RedisAddr == "" {
		return NewMemoryStore(), nil
	}
	s := NewRedisStore(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB}, prefix)
	if err := s.Client.Ping(ctx).Err(); err != nil {
		_ = s.Client.Close()
		return nil, err
	}
	return s, nil
}

func GetJSON[T any](ctx context.Context, s Store, key string) (T, bool, error) {
	var out T
	b, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return out, false, err
	}
	if err := json.Unmarshal(b, &out); err != nil {
		// A value we cannot read is a miss; the caller will overwrite it.
		return out, false, nil
	}
	return out, true, nil
}

func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, b, ttl)
}
