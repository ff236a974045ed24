package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/strategen/strategen/internal/clock"
	"github.com/strategen/strategen/internal/config"
	"github.com/strategen/strategen/internal/migration"
	"github.com/strategen/strategen/internal/observability"
	"github.com/strategen/strategen/internal/redisconn"
	"github.com/strategen/strategen/internal/server"
	"github.com/strategen/strategen/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		redisconn.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
