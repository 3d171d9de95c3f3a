package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// KeyPrefix namespaces every key written to Redis.
const KeyPrefix = "salah:"

// Redis keeps settings in a shared Redis instance.
type Redis struct {
	rdb *redis.Client
}

var _ Store = (*Redis)(nil)

// OpenRedis connects to the redis:// URL and pings it.
func OpenRedis(ctx context.Context, url string) (*Redis, error) {
	if url == "" {
		url = "redis://localhost:6379/0"
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return NewRedis(ctx, redis.NewClient(opts))
}

// NewRedis wraps an existing client.
func NewRedis(ctx context.Context, rdb *redis.Client) (*Redis, error) {
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	log.Debug().Str("addr", rdb.Options().Addr).Msg("[store] redis store ready")
	return &Redis{rdb: rdb}, nil
}

// Get returns the value of key, or ErrNotFound.
func (s *Redis) Get(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, KeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return v, nil
}

// Set stores value under key without expiry.
func (s *Redis) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, KeyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Delete removes key. A missing key is not an error.
func (s *Redis) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, KeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// Close closes the client.
func (s *Redis) Close() error {
	return s.rdb.Close()
}
