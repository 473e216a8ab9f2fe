package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/seatwise/internal/auth"
	"github.com/smallbiznis/seatwise/internal/authorization"
	"github.com/smallbiznis/seatwise/internal/clock"
	"github.com/smallbiznis/seatwise/internal/config"
	"github.com/smallbiznis/seatwise/internal/dashboard"
	"github.com/smallbiznis/seatwise/internal/department"
	"github.com/smallbiznis/seatwise/internal/environmental"
	"github.com/smallbiznis/seatwise/internal/gamification"
	"github.com/smallbiznis/seatwise/internal/impactmetrics"
	"github.com/smallbiznis/seatwise/internal/insight"
	"github.com/smallbiznis/seatwise/internal/license"
	"github.com/smallbiznis/seatwise/internal/migration"
	"github.com/smallbiznis/seatwise/internal/observability"
	"github.com/smallbiznis/seatwise/internal/organization"
	"github.com/smallbiznis/seatwise/internal/providers/pdf"
	"github.com/smallbiznis/seatwise/internal/runlock"
	"github.com/smallbiznis/seatwise/internal/scheduler"
	"github.com/smallbiznis/seatwise/internal/server"
	"github.com/smallbiznis/seatwise/pkg/db"
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
		migration.Module,
		runlock.Module,
		impactmetrics.Module,
		pdf.Module,

		// Functional Domains
		authorization.Module,
		auth.Module,
		organization.Module,
		department.Module,
		license.Module,
		insight.Module,
		gamification.Module,
		environmental.Module,
		dashboard.Module,

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
