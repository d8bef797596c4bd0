package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shopbooks/shopbooks/internal/account"
	"github.com/shopbooks/shopbooks/internal/allocation"
	"github.com/shopbooks/shopbooks/internal/audit"
	"github.com/shopbooks/shopbooks/internal/clock"
	"github.com/shopbooks/shopbooks/internal/config"
	"github.com/shopbooks/shopbooks/internal/costcenter"
	"github.com/shopbooks/shopbooks/internal/events"
	"github.com/shopbooks/shopbooks/internal/journal"
	"github.com/shopbooks/shopbooks/internal/migration"
	"github.com/shopbooks/shopbooks/internal/observability/logger"
	"github.com/shopbooks/shopbooks/internal/observability/tracing"
	"github.com/shopbooks/shopbooks/internal/reconciliation"
	"github.com/shopbooks/shopbooks/internal/recurring"
	"github.com/shopbooks/shopbooks/internal/scheduler"
	"github.com/shopbooks/shopbooks/internal/server"
	"github.com/shopbooks/shopbooks/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		tracing.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		events.Module,

		account.Module,
		journal.Module,
		recurring.Module,
		reconciliation.Module,
		costcenter.Module,
		allocation.Module,
		audit.Module,
		scheduler.Module,

		fx.Invoke(runMigrations),
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

func runMigrations(conn *gorm.DB, log *zap.Logger) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	if err := migration.RunMigrations(sqlDB); err != nil {
		return err
	}
	log.Named("migration").Info("schema up to date")
	return nil
}
