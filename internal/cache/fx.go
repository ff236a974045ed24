package cache

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/strategen/strategen/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewResultCache(cfg config.Config, client *redis.Client, log *zap.Logger) ResultCache {
	switch cfg.Cache.Backend {
	case config.CacheBackendDisabled:
		return NewDisabled()
	case config.CacheBackendRedis:
		return NewRedis(client, log)
	default:
		return NewMemory()
	}
}

var Module = fx.Module("result.cache",
	fx.Provide(NewResultCache),
)
