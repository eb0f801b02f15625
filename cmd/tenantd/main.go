package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenantd/internal/auth"
	"github.com/smallbiznis/tenantd/internal/cache"
	"github.com/smallbiznis/tenantd/internal/clock"
	"github.com/smallbiznis/tenantd/internal/config"
	"github.com/smallbiznis/tenantd/internal/logger"
	"github.com/smallbiznis/tenantd/internal/migration"
	"github.com/smallbiznis/tenantd/internal/partition"
	"github.com/smallbiznis/tenantd/internal/ratelimit"
	"github.com/smallbiznis/tenantd/internal/server"
	"github.com/smallbiznis/tenantd/internal/tenant"
	"github.com/smallbiznis/tenantd/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		cache.Module,
		ratelimit.Module,

		auth.Module,
		partition.Module,
		tenant.Module,

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
