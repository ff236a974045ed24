package quota

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/strategen/strategen/internal/config"
	quotadomain "github.com/strategen/strategen/internal/quota/domain"
	"github.com/strategen/strategen/internal/quota/repository"
	"github.com/strategen/strategen/internal/quota/service"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// NewStore picks the configured backing store. One store per deployment;
// the adapters are never composed.
func NewStore(cfg config.Config, db *gorm.DB, client *redis.Client) (quotadomain.Store, error) {
	if cfg.Quota.Store == config.StoreRedis {
		return repository.NewRedisStore(client)
	}
	return repository.NewGormStore(db), nil
}

var Module = fx.Module("quota.service",
	fx.Provide(
		NewStore,
		service.NewService,
	),
)
