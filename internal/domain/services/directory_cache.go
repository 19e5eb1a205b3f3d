package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	directoryCachePrefix     = "directory:"
	directoryCacheVersionKey = "directory:version"
)

// InterfaceDirectoryCache defines the read cache for public directory queries.
// Callers resolve the version once with Version before loading from the store
// and pass it to Get and Set, so a value loaded before an Invalidate is never
// stored under the newer version.
type InterfaceDirectoryCache interface {
	Version(ctx context.Context) (string, error)
	Get(ctx context.Context, version, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, version, key string, value interface{}) error
	Invalidate(ctx context.Context) error
}

// RedisDirectoryCache stores JSON values under a generation number. Invalidate
// bumps the generation so every earlier entry becomes unreachable and expires
// by TTL.
type RedisDirectoryCache struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisDirectoryCache creates a Redis backed directory cache
func NewRedisDirectoryCache(client *redis.Client, ttl time.Duration) InterfaceDirectoryCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisDirectoryCache{Client: client, TTL: ttl}
}

// 1 Version returns the current cache generation
func (c *RedisDirectoryCache) Version(ctx context.Context) (string, error) {
	version, err := c.Client.Get(ctx, directoryCacheVersionKey).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	if err != nil {
		return "", err
	}
	return version, nil
}

// 2 Get loads key of generation version into dest; false means a miss
func (c *RedisDirectoryCache) Get(ctx context.Context, version, key string, dest interface{}) (bool, error) {
	val, err := c.Client.Get(ctx, versionedKey(version, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

// 3 Set stores value under key of generation version for the configured TTL
func (c *RedisDirectoryCache) Set(ctx context.Context, version, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, versionedKey(version, key), jsonValue, c.TTL).Err()
}

// 4 Invalidate drops every cached entry
func (c *RedisDirectoryCache) Invalidate(ctx context.Context) error {
	return c.Client.Incr(ctx, directoryCacheVersionKey).Err()
}

func versionedKey(version, key string) string {
	return directoryCachePrefix + "v" + version + ":" + key
}

// NoopDirectoryCache is used when Redis is not configured
type NoopDirectoryCache struct{}

func (NoopDirectoryCache) Version(context.Context) (string, error) { return "", nil }
func (NoopDirectoryCache) Get(context.Context, string, string, interface{}) (bool, error) {
	return false, nil
}
func (NoopDirectoryCache) Set(context.Context, string, string, interface{}) error { return nil }
func (NoopDirectoryCache) Invalidate(context.Context) error                      { return nil }
