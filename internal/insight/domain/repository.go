package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	Type   string
	Status string
	Limit  int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, insight *Insight) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Insight, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListFilter) ([]*Insight, error)
	// UpdateStatus moves an insight from one status to another. It reports false when the
	// insight no longer holds the from status.
	UpdateStatus(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, from, to string, updatedAt time.Time) (bool, error)
	HasOpenInsight(ctx context.Context, db *gorm.DB, orgID, licenseID snowflake.ID, insightType string) (bool, error)
	// CountResolvedCreatedBetween counts resolved insights created in [start, end), optionally for one department.
	CountResolvedCreatedBetween(ctx context.Context, db *gorm.DB, orgID snowflake.ID, departmentID *snowflake.ID, start, end time.Time) (int64, error)

	FindRun(ctx context.Context, db *gorm.DB, orgID snowflake.ID, key string) (*GenerationRun, error)
	InsertRun(ctx context.Context, db *gorm.DB, run *GenerationRun) error
}
