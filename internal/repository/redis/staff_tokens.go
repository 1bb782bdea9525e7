// Package redis caches hot lookups in Redis.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pratik-mahalle/emsdispatch/internal/config"
	"github.com/pratik-mahalle/emsdispatch/internal/domain/notification"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/logger"
)

// StaffTokensKey holds the JSON list of staff push tokens.
const StaffTokensKey = "emsdispatch:staff_push_tokens"

// NewClient connects to Redis and verifies the connection.
func NewClient(cfg config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// StaffTokenCache serves staff push tokens from Redis, falling back to the
// wrapped source on a miss. Redis errors degrade to the fallback.
type StaffTokenCache struct {
	client   goredis.Cmdable
	fallback notification.TokenSource
	ttl      time.Duration
	logger   *logger.Logger
}

// NewStaffTokenCache wraps fallback with a Redis cache entry living for ttl.
func NewStaffTokenCache(client goredis.Cmdable, fallback notification.TokenSource, ttl time.Duration, log *logger.Logger) *StaffTokenCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &StaffTokenCache{
		client:   client,
		fallback: fallback,
		ttl:      ttl,
		logger:   log,
	}
}

// StaffTokens implements notification.TokenSource.
func (c *StaffTokenCache) StaffTokens(ctx context.Context) ([]string, error) {
	val, err := c.client.Get(ctx, StaffTokensKey).Result()
	switch {
	case err == nil:
		var tokens []string
		if jsonErr := json.Unmarshal([]byte(val), &tokens); jsonErr == nil {
			return tokens, nil
		}
		c.logger.Warn("Discarding undecodable staff token cache entry")
	case err != goredis.Nil:
		c.logger.WarnWithErr(err, "Staff token cache read failed")
	}

	tokens, err := c.fallback.StaffTokens(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(tokens)
	if err == nil {
		if setErr := c.client.Set(ctx, StaffTokensKey, data, c.ttl).Err(); setErr != nil {
			c.logger.WarnWithErr(setErr, "Staff token cache write failed")
		}
	}
	return tokens, nil
}

// Invalidate drops the cached token list.
func (c *StaffTokenCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, StaffTokensKey).Err(); err != nil {
		c.logger.WarnWithErr(err, "Staff token cache invalidation failed")
	}
}
