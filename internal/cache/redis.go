package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/strategen/strategen/internal/generation"
	"go.uber.org/zap"
)

const redisKeyPrefix = "strategy:"

type redisCache struct {
	client *redis.Client
	log    *zap.Logger
}

// NewRedis returns the redis-backed result cache. A nil client yields the
// disabled cache.
func NewRedis(client *redis.Client, log *zap.Logger) ResultCache {
	if client == nil {
		return NewDisabled()
	}
	return &redisCache{
		client: client,
		log:    log.Named("cache.redis"),
	}
}

func (c *redisCache) Get(ctx context.Context, fingerprint string) (generation.Document, bool) {
	if fingerprint == "" {
		return nil, false
	}

	raw, err := c.client.Get(ctx, redisKeyPrefix+fingerprint).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Debug("cache get failed, treating as miss", zap.Error(err))
		}
		return nil, false
	}

	var doc generation.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		c.log.Debug("cache entry corrupt, treating as miss", zap.Error(err))
		return nil, false
	}
	return doc, true
}

func (c *redisCache) Put(ctx context.Context, fingerprint string, doc generation.Document, ttl time.Duration) {
	if fingerprint == "" || doc == nil || ttl <= 0 {
		return
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		c.log.Debug("cache entry not serializable, dropping", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, redisKeyPrefix+fingerprint, raw, ttl).Err(); err != nil {
		c.log.Debug("cache put failed, dropping", zap.Error(err))
	}
}

func (c *redisCache) Flush(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.log.Debug("cache flush delete failed", zap.Error(err))
		}
	}
	if err := iter.Err(); err != nil {
		c.log.Debug("cache flush scan failed", zap.Error(err))
	}
}
