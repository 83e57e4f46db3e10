package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps session keys as plain Redis strings under a prefix. Keys never
// expire; the session lives until it is cleared.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisStore returns a store backed by rdb. An empty prefix defaults to "noted".
func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "noted"
	}
	return &RedisStore{
		redis:  rdb,
		prefix: prefix,
	}
}

func (s *RedisStore) key(name string) string {
	return s.prefix + ":session:" + name
}

// Get returns the value stored under key.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	v, err := s.redis.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return v, true, nil
}

// Set stores value under key.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := s.redis.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// SetMany writes all pairs in a single MULTI/EXEC.
func (s *RedisStore) SetMany(ctx context.Context, values map[string]string) error {
	for k := range values {
		if k == "" {
			return ErrEmptyKey
		}
	}
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range values {
			pipe.Set(ctx, s.key(k), v, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Remove deletes all given keys with one DEL.
func (s *RedisStore) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, s.key(k))
	}
	if err := s.redis.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
