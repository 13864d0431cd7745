package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopconcierge/backend/internal/domain"
)

const defaultKeyPrefix = "concierge:"

// Bookkeeping keys, relative to the prefix
const (
	indexKey = "_index"
	seqKey   = "_seq"
)

// setBounded stores a value and records it in the insertion index, then drops
// the oldest entries past the capacity. It runs atomically on the server.
//
// KEYS: value key, index key, sequence key
// ARGV: value, index member, ttl in ms (0 keeps the key), capacity, key prefix
var setBounded = redis.NewScript(`
local seq = redis.call('INCR', KEYS[3])
if tonumber(ARGV[3]) > 0 then
  redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
else
  redis.call('SET', KEYS[1], ARGV[1])
end
redis.call('ZADD', KEYS[2], seq, ARGV[2])
local excess = redis.call('ZCARD', KEYS[2]) - tonumber(ARGV[4])
if excess > 0 then
  local oldest = redis.call('ZRANGE', KEYS[2], 0, excess - 1)
  for _, member in ipairs(oldest) do
    redis.call('DEL', ARGV[5] .. member)
  end
  redis.call('ZREMRANGEBYRANK', KEYS[2], 0, excess - 1)
  return excess
end
return 0
`)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	PoolSize    int
	Prefix      string
	DialTimeout time.Duration
	MaxEntries  int // non-positive means DefaultMaxEntries
}

// RedisCache implements domain.CacheRepository on Redis.
// Values are stored as JSON so reads return the same shapes as MemoryCache.
// Like MemoryCache it holds at most maxEntries keys and evicts the oldest first.
type RedisCache struct {
	client     *redis.Client
	prefix     string
	maxEntries int
}

// NewRedisCache connects to Redis and verifies the connection with a ping
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: cfg.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: redis ping failed: %v", domain.ErrUnavailable, err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}

	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	return &RedisCache{client: client, prefix: prefix, maxEntries: maxEntries}, nil
}

// Get retrieves a value from Redis
func (c *RedisCache) Get(ctx context.Context, key string) (interface{}, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("redis decode %s: %w", key, err)
	}
	return value, nil
}

// Set stores a value in Redis with TTL. A non-positive ttl keeps the key until it is evicted.
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("redis encode %s: %w", key, err)
	}

	var ttlMillis int64
	if ttl > 0 {
		ttlMillis = max(ttl.Milliseconds(), 1)
	}

	keys := []string{c.prefix + key, c.prefix + indexKey, c.prefix + seqKey}
	if err := setBounded.Run(ctx, c.client, keys, raw, key, ttlMillis, c.maxEntries, c.prefix).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a value from Redis
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, c.prefix+key)
		pipe.ZRem(ctx, c.prefix+indexKey, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// Size returns the number of keys tracked in the insertion index
func (c *RedisCache) Size(ctx context.Context) (int64, error) {
	n, err := c.client.ZCard(ctx, c.prefix+indexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redis size: %w", err)
	}
	return n, nil
}

// Exists checks whether a key is present
func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
