package main

import (
	// The operational time zone must resolve even on hosts without a
	// system tz database.
	_ "time/tzdata"

	"github.com/bwmarrin/snowflake"
	"github.com/linecontrol/boxline/internal/clock"
	"github.com/linecontrol/boxline/internal/config"
	"github.com/linecontrol/boxline/internal/migration"
	"github.com/linecontrol/boxline/internal/observability"
	"github.com/linecontrol/boxline/internal/server"
	"github.com/linecontrol/boxline/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
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
