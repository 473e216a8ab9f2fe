package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"github.com/smallbiznis/seatwise/internal/config"
	"github.com/smallbiznis/seatwise/internal/logger"
	"github.com/smallbiznis/seatwise/internal/migration"
	"github.com/smallbiznis/seatwise/internal/observability"
	"github.com/smallbiznis/seatwise/pkg/db"
	"go.uber.org/zap"
)

// migrate applies or reverts the embedded postgres migrations.
//
//	migrate up
//	migrate -steps 1 down
func main() {
	steps := flag.Int("steps", 1, "number of migrations to revert with down")
	flag.Parse()

	direction := "up"
	if flag.NArg() > 0 {
		direction = flag.Arg(0)
	}

	cfg := config.Load()
	log, err := logger.New(observability.LoadConfig(cfg).LogLevel, zap.String("command", "migrate"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, direction, *steps); err != nil {
		log.Error("migrate failed", zap.String("direction", direction), zap.Error(err))
		os.Exit(1)
	}
	log.Info("migrate complete", zap.String("direction", direction))
}

func run(cfg config.Config, direction string, steps int) error {
	if cfg.DBType != "postgres" {
		return fmt.Errorf("DATABASE_TYPE %q is migrated with AutoMigrate at startup", cfg.DBType)
	}

	conn, err := sql.Open("postgres", db.FromConfig(cfg).PostgresURL())
	if err != nil {
		return err
	}
	defer conn.Close()

	switch direction {
	case "up":
		return migration.RunMigrations(conn)
	case "down":
		return migration.RollbackMigrations(conn, steps)
	default:
		return fmt.Errorf("unknown direction %q, want up or down", direction)
	}
}
