package internal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultIdentityKey is the key the user id is stored under.
const DefaultIdentityKey = "chatUserId"

// IdentityStore persists the generated user identifier across runs.
type IdentityStore interface {
	// Load returns the stored id. ok is false when nothing is stored yet.
	Load(ctx context.Context) (id string, ok bool, err error)
	// Save overwrites the stored id.
	Save(ctx context.Context, id string) error
	// Close releases any resources.
	Close() error
}

// StoreType represents the identity store driver.
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeFile   StoreType = "file"
	StoreTypeSQLite StoreType = "sqlite"
	StoreTypeRedis  StoreType = "redis"
)

// StoreOption is a functional option for configuring an identity store.
type StoreOption func(*storeConfig)

type storeConfig struct {
	key         string
	path        string
	redisClient *redis.Client
	redisTTL    time.Duration
}

// WithKey sets the key the id is stored under.
func WithKey(key string) StoreOption {
	return func(c *storeConfig) {
		c.key = key
	}
}

// WithPath sets the file or database path for the file and sqlite drivers.
func WithPath(path string) StoreOption {
	return func(c *storeConfig) {
		c.path = path
	}
}

// WithRedisClient sets the Redis client for the Redis store.
func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

// WithRedisTTL sets the TTL for the Redis key. Zero keeps it forever.
func WithRedisTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) {
		c.redisTTL = ttl
	}
}

// NewIdentityStore creates an IdentityStore for the given driver.
func NewIdentityStore(storeType StoreType, opts ...StoreOption) (IdentityStore, error) {
	cfg := &storeConfig{key: DefaultIdentityKey}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.key == "" {
		return nil, &ConfigError{Field: "identity.key", Reason: "must not be empty"}
	}

	switch storeType {
	case StoreTypeMemory:
		return NewMemoryIdentityStore(), nil
	case StoreTypeFile:
		if cfg.path == "" {
			return nil, &ConfigError{Field: "identity.path", Reason: "is required for the file driver"}
		}
		return NewFileIdentityStore(cfg.path, cfg.key), nil
	case StoreTypeSQLite:
		if cfg.path == "" {
			return nil, &ConfigError{Field: "identity.path", Reason: "is required for the sqlite driver"}
		}
		return OpenSQLiteIdentityStore(cfg.path, cfg.key)
	case StoreTypeRedis:
		if cfg.redisClient == nil {
			return nil, &ConfigError{Field: "identity.redis_addr", Reason: "is required for the redis driver"}
		}
		return NewRedisIdentityStore(cfg.redisClient, cfg.key, cfg.redisTTL), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStoreType, storeType)
	}
}

// NewUserID generates a time-ordered unique user id.
func NewUserID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf("user-%d", time.Now().UnixMilli())
	}
	return "user-" + id.String()
}

// LoadOrCreateUserID returns the stored id, generating and saving one when
// the store is empty.
func LoadOrCreateUserID(ctx context.Context, store IdentityStore) (string, error) {
	id, ok, err := store.Load(ctx)
	if err != nil {
		return "", err
	}
	if ok && id != "" {
		return id, nil
	}
	id = NewUserID()
	if err := store.Save(ctx, id); err != nil {
		return "", err
	}
	LogDebug("Generated user id %s", id)
	return id, nil
}

// MemoryIdentityStore keeps the id for the lifetime of the process.
type MemoryIdentityStore struct {
	mu sync.RWMutex
	id string
}

// NewMemoryIdentityStore creates an empty in-memory store.
func NewMemoryIdentityStore() *MemoryIdentityStore {
	return &MemoryIdentityStore{}
}

// Load implements IdentityStore.
func (s *MemoryIdentityStore) Load(ctx context.Context) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id, s.id != "", nil
}

// Save implements IdentityStore.
func (s *MemoryIdentityStore) Save(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	return nil
}

// Close implements IdentityStore.
func (s *MemoryIdentityStore) Close() error {
	return nil
}
