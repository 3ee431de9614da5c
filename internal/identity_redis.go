package internal

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const identityKeyPrefix = "hookchat:identity:"

// RedisIdentityStore keeps the user id in Redis, for deployments where
// several hosts share one identity.
type RedisIdentityStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisIdentityStore creates a Redis-backed store. A zero ttl keeps the
// key forever; otherwise the TTL is refreshed on every read.
func NewRedisIdentityStore(client *redis.Client, key string, ttl time.Duration) *RedisIdentityStore {
	return &RedisIdentityStore{
		client: client,
		key:    identityKeyPrefix + key,
		ttl:    ttl,
	}
}

// Load implements IdentityStore.
func (s *RedisIdentityStore) Load(ctx context.Context) (string, bool, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, &IdentityError{Driver: string(StoreTypeRedis), Op: "load", Err: errors.Wrap(err, "get failed")}
	}

	if s.ttl > 0 {
		// a failed refresh only shortens the key's life
		_ = s.client.Expire(ctx, s.key, s.ttl).Err()
	}
	return val, val != "", nil
}

// Save implements IdentityStore.
func (s *RedisIdentityStore) Save(ctx context.Context, id string) error {
	if err := s.client.Set(ctx, s.key, id, s.ttl).Err(); err != nil {
		return &IdentityError{Driver: string(StoreTypeRedis), Op: "save", Err: errors.Wrap(err, "set failed")}
	}
	return nil
}

// Close implements IdentityStore.
func (s *RedisIdentityStore) Close() error {
	return s.client.Close()
}
