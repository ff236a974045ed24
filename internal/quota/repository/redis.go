package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	quotadomain "github.com/strategen/strategen/internal/quota/domain"
)

const (
	keyQuota = "quota:%s:%s"

	// Counters are keyed per month, so a key only has to outlive its own
	// calendar month; 45 days covers the longest one with slack.
	quotaKeyTTL = 45 * 24 * time.Hour
)

type redisStore struct {
	client *redis.Client
}

// NewRedisStore returns the redis-backed monthly counter. Keys embed the
// calendar month, so the lazy reset falls out of the key scheme.
func NewRedisStore(client *redis.Client) (quotadomain.Store, error) {
	if client == nil {
		return nil, errors.New("quota redis store requires a client")
	}
	return &redisStore{client: client}, nil
}

func (r *redisStore) Current(ctx context.Context, userID, month string) (int64, error) {
	count, err := r.client.Get(ctx, fmt.Sprintf(keyQuota, userID, month)).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

func (r *redisStore) Increment(ctx context.Context, userID, month string) (int64, error) {
	key := fmt.Sprintf(keyQuota, userID, month)
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	// Set expiry only on first increment; refreshing it would let an active
	// counter slide forever.
	if err := r.client.ExpireNX(ctx, key, quotaKeyTTL).Err(); err != nil {
		return count, err
	}
	return count, nil
}
