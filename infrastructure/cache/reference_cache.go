package cache

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/NitchBekker23/Vault-CRM-V1-sub004/infrastructure/repository"
)

const (
	storeCodesKey       = keyPrefix + "ref:stores"
	salespersonCodesKey = keyPrefix + "ref:salespersons"
)

// ReferenceCache keeps the store and salesperson code lists in Redis sets.
// Redis failures fall back to the database, so a cache outage never rejects
// an import.
type ReferenceCache struct {
	redis *RedisClient
	repo  repository.ReferenceRepository
}

func NewReferenceCache(redis *RedisClient, repo repository.ReferenceRepository) *ReferenceCache {
	return &ReferenceCache{
		redis: redis,
		repo:  repo,
	}
}

func (c *ReferenceCache) ListStoreCodes(ctx context.Context) ([]string, error) {
	return c.codes(ctx, storeCodesKey, c.repo.ListStoreCodes)
}

func (c *ReferenceCache) ListSalespersonCodes(ctx context.Context) ([]string, error) {
	return c.codes(ctx, salespersonCodesKey, c.repo.ListSalespersonCodes)
}

// Refresh drops both lists so the next batch reads them from the database.
func (c *ReferenceCache) Refresh(ctx context.Context) error {
	if !c.redis.enabled() {
		return nil
	}
	return c.redis.client.Del(ctx, storeCodesKey, salespersonCodesKey).Err()
}

func (c *ReferenceCache) codes(ctx context.Context, key string, load func(context.Context) ([]string, error)) ([]string, error) {
	if !c.redis.enabled() {
		return load(ctx)
	}

	cached, err := c.redis.client.SMembers(ctx, key).Result()
	if err == nil && len(cached) > 0 {
		return cached, nil
	}
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Reference cache read failed, using database")
	}

	codes, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		return codes, nil
	}

	members := make([]interface{}, 0, len(codes))
	for _, code := range codes {
		members = append(members, code)
	}

	pipe := c.redis.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.SAdd(ctx, key, members...)
	pipe.Expire(ctx, key, c.redis.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Reference cache write failed")
	}

	return codes, nil
}
