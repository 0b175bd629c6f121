package repository

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStateStore stores client state as plain Redis strings named
// "<prefix>:<key>".  Entries never expire: a session ends only on logout
// or when the backend rejects the credential.
type RedisStateStore struct {
	RDB    *redis.Client
	Prefix string
}

func NewRedisStateStore(rdb *redis.Client, prefix string) *RedisStateStore {
	if prefix == "" {
		prefix = "storefront"
	}
	return &RedisStateStore{RDB: rdb, Prefix: prefix}
}

func (r *RedisStateStore) key(k string) string { return r.Prefix + ":" + k }

// Get fetches a key, mapping redis.Nil to ErrStateNotFound.
func (r *RedisStateStore) Get(ctx context.Context, key string) (string, error) {
	v, err := r.RDB.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrStateNotFound
	}
	return v, err
}

func (r *RedisStateStore) Set(ctx context.Context, key, value string) error {
	return r.RDB.Set(ctx, r.key(key), value, 0).Err()
}

func (r *RedisStateStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	return r.RDB.Del(ctx, full...).Err()
}
