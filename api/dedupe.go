package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"standupbot/secrets"
)

// Deduper decides whether an inbound update was already recorded today.
type Deduper interface {
	Seen(ctx context.Context, tenantID, memberID, text string) (bool, error)
	Mark(ctx context.Context, tenantID, memberID, text string) error
}

// RedisDeduper keys a 24h TTL marker on the SHA-256 of the update text.
type RedisDeduper struct {
	client *redis.Client
}

func NewRedisDeduper(redisURL string) (*RedisDeduper, error) {
	opt, err := redis.ParseURL(strings.TrimSpace(redisURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return &RedisDeduper{client: client}, nil
}

func dedupeKey(tenantID, memberID, text string) string {
	return fmt.Sprintf("update:%s:%s:%s", tenantID, memberID, secrets.Hash(text))
}

func (d *RedisDeduper) Seen(ctx context.Context, tenantID, memberID, text string) (bool, error) {
	n, err := d.client.Exists(ctx, dedupeKey(tenantID, memberID, text)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *RedisDeduper) Mark(ctx context.Context, tenantID, memberID, text string) error {
	return d.client.Set(ctx, dedupeKey(tenantID, memberID, text), 1, 24*time.Hour).Err()
}
