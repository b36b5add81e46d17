package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"incidentcore/internal/config"
	"incidentcore/internal/core"
)

func init() {
	RegisterFactory(redisFactory{})
	config.RegisterCacheValidator(redisValidator{})
}

// RedisKVStore implements the core.KVStore interface using Redis.
type RedisKVStore struct {
	client *redis.Client
	closed bool
}

// NewRedisKVStore creates a new Redis KV store implementation.
func NewRedisKVStore(endpoints []string, password string, db int, poolSize int, minIdleConns int, dialTimeout, readTimeout, writeTimeout time.Duration) (*RedisKVStore, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("at least one endpoint is required")
	}

	opts := &redis.Options{
		Addr:         endpoints[0],
		Password:     password,
		DB:           db,
		PoolSize:     poolSize,
		MinIdleConns: minIdleConns,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisKVStore{
		client: client,
		closed: false,
	}, nil
}

// Get retrieves a value by key from the store.
func (r *RedisKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if r.closed {
		return nil, fmt.Errorf("KV store is closed")
	}

	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, core.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return val, nil
}

// Set stores a key-value pair with an optional TTL.
func (r *RedisKVStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if r.closed {
		return fmt.Errorf("KV store is closed")
	}

	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Delete removes a key from the store.
func (r *RedisKVStore) Delete(ctx context.Context, key string) error {
	if r.closed {
		return fmt.Errorf("KV store is closed")
	}

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// Close closes the connection to Redis.
func (r *RedisKVStore) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.client.Close()
}

// redisFactory creates Redis-backed KV stores.
type redisFactory struct{}

func (redisFactory) Type() string { return "redis" }

func (redisFactory) Create(cfg *config.CacheConfig) (core.KVStore, error) {
	rc := cfg.RedisConfig
	return NewRedisKVStore(rc.Endpoints, rc.Password, rc.DB, rc.PoolSize, rc.MinIdleConns,
		cfg.DialTimeout, cfg.ReadTimeout, cfg.WriteTimeout)
}

// redisValidator validates the Redis cache configuration.
type redisValidator struct{}

func (redisValidator) Type() string { return "redis" }

func (redisValidator) Validate(cfg *config.CacheConfig) error {
	if len(cfg.RedisConfig.Endpoints) == 0 {
		return fmt.Errorf("redis_config.endpoints is required")
	}
	if cfg.RedisConfig.DB < 0 {
		return fmt.Errorf("redis_config.db must be non-negative")
	}
	if cfg.RedisConfig.PoolSize <= 0 {
		return fmt.Errorf("redis_config.pool_size must be greater than 0")
	}
	return nil
}
