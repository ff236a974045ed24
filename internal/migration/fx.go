package migration

import (
	burstdomain "github.com/strategen/strategen/internal/burst/domain"
	"github.com/strategen/strategen/internal/config"
	historydomain "github.com/strategen/strategen/internal/history/domain"
	quotadomain "github.com/strategen/strategen/internal/quota/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		return conn.AutoMigrate(
			&quotadomain.UsageRecord{},
			&burstdomain.Event{},
			&historydomain.StrategyDocument{},
		)
	}),
)
