package output

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"MarketPulse/internal/model"
)

const (
	DefaultRedisKey     = "marketpulse:snapshot:latest"
	DefaultRedisChannel = "marketpulse:snapshots"
)

// redisClient is the subset of go-redis used for publishing.
type redisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPublisher caches the latest snapshot under a key and announces it on
// a pub/sub channel.
type RedisPublisher struct {
	client  redisClient
	Key     string
	Channel string
	TTL     time.Duration
}

// NewRedisPublisher creates a publisher on top of client. Empty key or
// channel fall back to the defaults.
func NewRedisPublisher(client *redis.Client, key, channel string, ttl time.Duration) *RedisPublisher {
	return newRedisPublisher(client, key, channel, ttl)
}

func newRedisPublisher(client redisClient, key, channel string, ttl time.Duration) *RedisPublisher {
	if key == "" {
		key = DefaultRedisKey
	}
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisPublisher{client: client, Key: key, Channel: channel, TTL: ttl}
}

func (p *RedisPublisher) Name() string { return "redis" }

func (p *RedisPublisher) Publish(ctx context.Context, snap *model.MarketSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := p.client.Set(ctx, p.Key, data, p.TTL).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", p.Key, err)
	}
	if err := p.client.Publish(ctx, p.Channel, data).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", p.Channel, err)
	}
	return nil
}
