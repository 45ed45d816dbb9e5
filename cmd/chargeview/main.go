package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/chargeview/internal/clock"
	"github.com/smallbiznis/chargeview/internal/config"
	"github.com/smallbiznis/chargeview/internal/contract"
	"github.com/smallbiznis/chargeview/internal/feed"
	"github.com/smallbiznis/chargeview/internal/ingest"
	"github.com/smallbiznis/chargeview/internal/logger"
	"github.com/smallbiznis/chargeview/internal/migration"
	"github.com/smallbiznis/chargeview/internal/observability"
	"github.com/smallbiznis/chargeview/internal/report"
	"github.com/smallbiznis/chargeview/internal/scheduler"
	"github.com/smallbiznis/chargeview/internal/server"
	"github.com/smallbiznis/chargeview/internal/usage"
	"github.com/smallbiznis/chargeview/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		feed.Module,

		// Functional domains
		contract.Module,
		usage.Module,
		report.Module,
		ingest.Module,
		scheduler.Module,

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
