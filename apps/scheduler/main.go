package main

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/seatwise/internal/auth"
	"github.com/smallbiznis/seatwise/internal/authorization"
	"github.com/smallbiznis/seatwise/internal/clock"
	"github.com/smallbiznis/seatwise/internal/config"
	"github.com/smallbiznis/seatwise/internal/department"
	"github.com/smallbiznis/seatwise/internal/environmental"
	"github.com/smallbiznis/seatwise/internal/gamification"
	"github.com/smallbiznis/seatwise/internal/impactmetrics"
	"github.com/smallbiznis/seatwise/internal/insight"
	"github.com/smallbiznis/seatwise/internal/license"
	"github.com/smallbiznis/seatwise/internal/observability"
	"github.com/smallbiznis/seatwise/internal/organization"
	"github.com/smallbiznis/seatwise/internal/providers/pdf"
	"github.com/smallbiznis/seatwise/internal/runlock"
	"github.com/smallbiznis/seatwise/internal/scheduler"
	"github.com/smallbiznis/seatwise/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		runlock.Module,
		impactmetrics.Module,

		// Domain services required by scheduler
		authorization.Module,
		auth.Module,
		organization.Module,
		department.Module,
		license.Module,
		insight.Module,
		gamification.Module,
		environmental.Module,

		// Transitive dependencies (the impact estimator renders reports)
		pdf.Module,

		// No server module!
		scheduler.Components,
		fx.Invoke(StartScheduler),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(2)
	if err != nil {
		panic(err)
	}
	return node
}

// StartScheduler runs the loop regardless of SCHEDULER_ENABLED; this binary exists only for it.
func StartScheduler(lc fx.Lifecycle, s *scheduler.Scheduler) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go s.RunForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
