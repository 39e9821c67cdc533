// Package scancache is a Redis-backed decision cache. It remembers prompts
// whose scans ended in a block so repeat offenders can be refused without
// another scan round-trip. Only blocking outcomes are stored; allowed and
// indeterminate prompts are always scanned live.
package scancache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/promptgate/promptgate/pkg/scanner"
	"github.com/promptgate/promptgate/pkg/verdict"
)

// ErrNotBlocking is returned when an outcome that would not block is offered
// for caching.
var ErrNotBlocking = errors.New("only blocking outcomes are cached")

// RedisCache implements a Redis-backed decision cache
type RedisCache struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
}

// RedisOption represents an option for configuring the Redis cache
type RedisOption func(*RedisCache)

// WithTTL sets how long blocking outcomes stay cached
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *RedisCache) {
		r.ttl = ttl
	}
}

// WithKeyPrefix sets a custom prefix for Redis keys
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *RedisCache) {
		r.keyPrefix = prefix
	}
}

// RedisConfig contains configuration for Redis
type RedisConfig struct {
	// Addr is the Redis address (e.g., "localhost:6379")
	Addr string

	// Password is the Redis password
	Password string

	// DB is the Redis database number
	DB int
}

// NewRedisCache creates a new Redis-backed decision cache
func NewRedisCache(client *redis.Client, options ...RedisOption) *RedisCache {
	cache := &RedisCache{
		client:    client,
		ttl:       24 * time.Hour,        // Default TTL
		keyPrefix: "promptgate:blocked:", // Default prefix
	}

	for _, option := range options {
		option(cache)
	}

	return cache
}

// NewRedisCacheFromConfig creates a new Redis decision cache from configuration
func NewRedisCacheFromConfig(config RedisConfig, options ...RedisOption) (*RedisCache, error) {
	// Create Redis client
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	// Test connection
	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisCache(client, options...), nil
}

// key derives the Redis key for a prompt. Prompts are keyed by digest so the
// raw text never reaches Redis.
func (r *RedisCache) key(prompt string) string {
	digest := sha256.Sum256([]byte(prompt))
	return r.keyPrefix + hex.EncodeToString(digest[:])
}

// GetBlocked looks up a cached blocking outcome for the prompt
func (r *RedisCache) GetBlocked(ctx context.Context, prompt string) (*scanner.Outcome, bool, error) {
	data, err := r.client.Get(ctx, r.key(prompt)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read decision cache: %w", err)
	}

	var outcome scanner.Outcome
	if err := json.Unmarshal([]byte(data), &outcome); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached outcome: %w", err)
	}

	return &outcome, true, nil
}

// PutBlocked caches a blocking outcome for the prompt
func (r *RedisCache) PutBlocked(ctx context.Context, prompt string, outcome *scanner.Outcome) error {
	if verdict.Decide(outcome).Verdict != verdict.VerdictBlock {
		return ErrNotBlocking
	}

	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}

	if err := r.client.Set(ctx, r.key(prompt), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write decision cache: %w", err)
	}

	return nil
}

// Close closes the underlying Redis connection
func (r *RedisCache) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
