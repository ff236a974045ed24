package burst

import (
	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	burstdomain "github.com/strategen/strategen/internal/burst/domain"
	"github.com/strategen/strategen/internal/burst/repository"
	"github.com/strategen/strategen/internal/burst/service"
	"github.com/strategen/strategen/internal/config"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// NewStore picks the configured backing store, mirroring the quota wiring.
func NewStore(cfg config.Config, db *gorm.DB, node *snowflake.Node, client *redis.Client) (burstdomain.Store, error) {
	if cfg.Burst.Store == config.StoreRedis {
		return repository.NewRedisStore(client, cfg.Burst.Window)
	}
	return repository.NewGormStore(db, node), nil
}

var Module = fx.Module("burst.service",
	fx.Provide(
		NewStore,
		service.NewService,
	),
)
