package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scraprates/internal/clock"
	"github.com/smallbiznis/scraprates/internal/config"
	"github.com/smallbiznis/scraprates/internal/migration"
	"github.com/smallbiznis/scraprates/internal/observability"
	"github.com/smallbiznis/scraprates/internal/pushmetrics"
	"github.com/smallbiznis/scraprates/internal/seed"
	"github.com/smallbiznis/scraprates/internal/server"
	"github.com/smallbiznis/scraprates/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// schema before seed, both before the listener
		migration.Module,
		seed.Module,
		server.Module,
		pushmetrics.Module,
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
