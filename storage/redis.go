package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every transport-level Redis failure so callers
// can distinguish "key absent" from "store unreachable".
var ErrRedisUnavailable = errors.New("storage: redis unavailable")

// Redis is a [Backend] over a shared Redis instance. All keys live under a
// fixed prefix so several installations can share one database.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis creates a Redis-backed store. prefix sets the key namespace and
// must be non-empty.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	return &Redis{
		client: client,
		prefix: prefix,
	}
}

func (r *Redis) key(key string) string {
	return r.prefix + ":" + key
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return data, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	namespaced := make([]string, 0, len(keys))
	for _, key := range keys {
		namespaced = append(namespaced, r.key(key))
	}
	if err := r.client.Del(ctx, namespaced...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (r *Redis) Keys(ctx context.Context) ([]string, error) {
	pattern := r.prefix + ":*"
	trim := r.prefix + ":"

	var (
		cursor uint64
		keys   []string
	)
	for {
		batch, next, err := r.client.Scan(ctx, cursor, pattern, 1000).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		for _, key := range batch {
			keys = append(keys, strings.TrimPrefix(key, trim))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	return keys, nil
}

func (r *Redis) Flush(ctx context.Context) error {
	keys, err := r.Keys(ctx)
	if err != nil {
		return err
	}
	return r.Delete(ctx, keys...)
}
