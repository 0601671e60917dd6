package sessions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "team-roster:token:"
	revokedMarker    = "revoked"
)

type RedisCacheConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

type redisCache struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisCache connects to Redis and verifies the connection with PING.
func NewRedisCache(ctx context.Context, cfg RedisCacheConfig) (Cache, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}

	client := redis.NewClient(&redis.Options{
		Addr:       addr,
		Password:   cfg.Password,
		DB:         cfg.DB,
		MaxRetries: 2,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &redisCache{client: client, prefix: prefix}, nil
}

func (c *redisCache) key(tokenID string) string {
	return c.prefix + tokenID
}

func (c *redisCache) Get(ctx context.Context, tokenID string) (int, bool, error) {
	value, err := c.client.Get(ctx, c.key(tokenID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get token %s: %w", tokenID, err)
	}
	if value == revokedMarker {
		return 0, false, ErrRevoked
	}
	userID, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt cache entry for token %s: %w", tokenID, err)
	}
	return userID, true, nil
}

func (c *redisCache) Set(ctx context.Context, tokenID string, userID int, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	// SET NX: существующая запись (в том числе отметка об отзыве) не перезаписывается.
	if err := c.client.SetNX(ctx, c.key(tokenID), strconv.Itoa(userID), ttl).Err(); err != nil {
		return fmt.Errorf("redis set token %s: %w", tokenID, err)
	}
	return nil
}

func (c *redisCache) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("revocation ttl must be positive")
	}
	if err := c.client.Set(ctx, c.key(tokenID), revokedMarker, ttl).Err(); err != nil {
		return fmt.Errorf("redis revoke token %s: %w", tokenID, err)
	}
	return nil
}

func (c *redisCache) Close() error {
	return c.client.Close()
}
