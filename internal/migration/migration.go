package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	authdomain "github.com/smallbiznis/seatwise/internal/auth/domain"
	departmentdomain "github.com/smallbiznis/seatwise/internal/department/domain"
	environmentaldomain "github.com/smallbiznis/seatwise/internal/environmental/domain"
	gamificationdomain "github.com/smallbiznis/seatwise/internal/gamification/domain"
	insightdomain "github.com/smallbiznis/seatwise/internal/insight/domain"
	licensedomain "github.com/smallbiznis/seatwise/internal/license/domain"
	organizationdomain "github.com/smallbiznis/seatwise/internal/organization/domain"
	"gorm.io/gorm"
)

const migrationsDir = "sql"

//go:embed sql/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies the embedded postgres migrations.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	migrator, err := newMigrator(db)
	if err != nil {
		return err
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// RollbackMigrations reverts the given number of steps.
func RollbackMigrations(db *sql.DB, steps int) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}
	if steps <= 0 {
		return errors.New("rollback steps must be positive")
	}

	migrator, err := newMigrator(db)
	if err != nil {
		return err
	}
	if err := migrator.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rollback migrations: %w", err)
	}
	return nil
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return migrator, nil
}

// Models lists every persisted model, in dependency order.
func Models() []any {
	return []any{
		&authdomain.User{},
		&authdomain.Session{},
		&organizationdomain.Organization{},
		&departmentdomain.Department{},
		&organizationdomain.OrganizationMember{},
		&licensedomain.License{},
		&licensedomain.UsageRecord{},
		&insightdomain.Insight{},
		&insightdomain.GenerationRun{},
		&gamificationdomain.Score{},
		&gamificationdomain.Badge{},
		&environmentaldomain.Snapshot{},
	}
}

// AutoMigrate builds the schema from the models for dialects without SQL migrations.
func AutoMigrate(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	return conn.AutoMigrate(Models()...)
}
