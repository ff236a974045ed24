package history

import (
	"github.com/strategen/strategen/internal/history/repository"
	"github.com/strategen/strategen/internal/history/service"
	"go.uber.org/fx"
)

var Module = fx.Module("history.service",
	fx.Provide(
		repository.NewRepository,
		service.NewService,
	),
)
