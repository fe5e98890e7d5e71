package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/dating-api/internal/config"
)

// CountTTL is how long a cached counter lives without being touched.
const CountTTL = time.Hour

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

// KeyForLikeCount generates Redis key for how many users liked userID.
func (c *RedisCache) KeyForLikeCount(userID uint64) string {
	return fmt.Sprintf("likes:count:%d", userID)
}

// KeyForUnreadCount generates Redis key for userID's unread message count.
func (c *RedisCache) KeyForUnreadCount(userID uint64) string {
	return fmt.Sprintf("messages:unread:%d", userID)
}

// GetCount reads a cached counter. ok is false on a cache miss.
// TTL is refreshed on access.
func (c *RedisCache) GetCount(ctx context.Context, key string) (n int64, ok bool, err error) {
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	n, err = strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil // treat garbage as a miss
	}
	_ = c.Client.Expire(ctx, key, CountTTL).Err()
	return n, true, nil
}

// SetCount stores a counter with CountTTL.
func (c *RedisCache) SetCount(ctx context.Context, key string, n int64) error {
	return c.Client.Set(ctx, key, n, CountTTL).Err()
}

// Invalidate drops counters after the rows behind them changed.
// The next read recomputes from the database.
func (c *RedisCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.Client.Del(ctx, keys...).Err()
}
