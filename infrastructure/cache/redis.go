package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/config"
)

const keyPrefix = "vault:"

// RedisClient holds the Redis connection shared by the caches.
type RedisClient struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient connects to Redis. It returns nil, nil when Redis is not
// configured, which turns every cache into a pass-through.
func NewRedisClient(cfg config.Redis) (*RedisClient, error) {
	if !cfg.Enabled() {
		logrus.Info("REDIS_ADDR not set, caching disabled")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pong, err := client.Ping(ctx).Result()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logrus.WithField("addr", cfg.Addr).Infof("Connected to Redis, ping response: %s", pong)

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	return &RedisClient{client: client, ttl: ttl}, nil
}

func (c *RedisClient) Close() {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Close(); err != nil {
		logrus.WithError(err).Warn("Error closing Redis connection")
		return
	}
	logrus.Info("Redis connection closed")
}

// GetClient returns the underlying client, nil when caching is disabled.
func (c *RedisClient) GetClient() *redis.Client {
	if c == nil {
		return nil
	}
	return c.client
}

func (c *RedisClient) enabled() bool {
	return c != nil && c.client != nil
}
