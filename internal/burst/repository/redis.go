package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	burstdomain "github.com/strategen/strategen/internal/burst/domain"
)

const keyBurst = "burst:%s"

type redisStore struct {
	client *redis.Client
	window time.Duration
}

// NewRedisStore returns the redis-backed event log. Events live in a
// per-user sorted set scored by unix milliseconds; entries older than the
// window are trimmed on every append.
func NewRedisStore(client *redis.Client, window time.Duration) (burstdomain.Store, error) {
	if client == nil {
		return nil, errors.New("burst redis store requires a client")
	}
	if window <= 0 {
		return nil, errors.New("burst redis store requires a positive window")
	}
	return &redisStore{client: client, window: window}, nil
}

func (r *redisStore) CountSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	return r.client.ZCount(ctx,
		fmt.Sprintf(keyBurst, userID),
		strconv.FormatInt(since.UnixMilli(), 10),
		"+inf",
	).Result()
}

func (r *redisStore) Append(ctx context.Context, userID string, at time.Time) error {
	key := fmt.Sprintf(keyBurst, userID)
	cutoff := at.Add(-r.window).UnixMilli()

	pipe := r.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(at.UnixMilli()),
		Member: uuid.NewString(),
	})
	pipe.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(cutoff, 10))
	// Double the window so a trailing count near the boundary never loses
	// events to key expiry.
	pipe.Expire(ctx, key, 2*r.window)
	_, err := pipe.Exec(ctx)
	return err
}
