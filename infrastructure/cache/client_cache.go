package cache

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var errClientInvalidated = errors.New("client invalidated while loading")

// ClientGetter is the read side of the client repository.
type ClientGetter interface {
	GetByID(ctx context.Context, id string) (*domain.Client, error)
}

// ClientCache is a read-through cache of client records, invalidated by the
// stats aggregator after every recompute.
type ClientCache struct {
	redis *RedisClient
	repo  ClientGetter
}

func NewClientCache(redis *RedisClient, repo ClientGetter) *ClientCache {
	return &ClientCache{
		redis: redis,
		repo:  repo,
	}
}

func clientKey(id string) string {
	return keyPrefix + "client:" + id
}

// clientGenerationKey is bumped on every invalidation. A reader only caches
// what it loaded when the generation is still the one it saw before going to
// the database, so a row read before a stats update is never cached after it.
func clientGenerationKey(id string) string {
	return keyPrefix + "client-gen:" + id
}

// GetByID returns nil, nil when the client does not exist.
func (c *ClientCache) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	if !c.redis.enabled() {
		return c.repo.GetByID(ctx, id)
	}

	logger := logrus.WithField("client_id", id)

	raw, err := c.redis.client.Get(ctx, clientKey(id)).Bytes()
	switch {
	case err == nil:
		var client domain.Client
		if err := json.Unmarshal(raw, &client); err == nil {
			return &client, nil
		}
		logger.Warn("Discarding undecodable cached client")
	case !errors.Is(err, redis.Nil):
		logger.WithError(err).Warn("Client cache read failed, using database")
	}

	generation, genErr := c.generation(ctx, id)

	client, err := c.repo.GetByID(ctx, id)
	if err != nil || client == nil || genErr != nil {
		return client, err
	}

	payload, err := json.Marshal(client)
	if err != nil {
		return client, nil
	}

	if err := c.store(ctx, id, generation, payload); err != nil {
		logger.WithError(err).Warn("Client cache write failed")
	}

	return client, nil
}

func (c *ClientCache) generation(ctx context.Context, id string) (string, error) {
	generation, err := c.redis.client.Get(ctx, clientGenerationKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return generation, err
}

// store writes the payload unless the client was invalidated since generation
// was read.
func (c *ClientCache) store(ctx context.Context, id, generation string, payload []byte) error {
	genKey := clientGenerationKey(id)

	err := c.redis.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return errClientInvalidated
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, clientKey(id), payload, c.redis.ttl)
			return nil
		})
		return err
	}, genKey)

	if errors.Is(err, errClientInvalidated) || errors.Is(err, redis.TxFailedErr) {
		logrus.WithField("client_id", id).Debug("Client invalidated while loading, not caching")
		return nil
	}
	return err
}

func (c *ClientCache) Invalidate(ctx context.Context, clientID string) error {
	if !c.redis.enabled() {
		return nil
	}

	_, err := c.redis.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, clientGenerationKey(clientID))
		pipe.Expire(ctx, clientGenerationKey(clientID), c.redis.ttl)
		pipe.Del(ctx, clientKey(clientID))
		return nil
	})
	return err
}
