package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// UpsertSnapshot inserts or overwrites the row keyed by (org, department, period).
	UpsertSnapshot(ctx context.Context, db *gorm.DB, snapshot *Snapshot) error
	// SumCO2Before sums organization-level CO2 for periods sorting strictly before period.
	SumCO2Before(ctx context.Context, db *gorm.DB, orgID snowflake.ID, period string) (float64, error)
	FindOrganizationSnapshot(ctx context.Context, db *gorm.DB, orgID snowflake.ID, period string) (*Snapshot, error)
	ListOrganizationSnapshots(ctx context.Context, db *gorm.DB, orgID snowflake.ID, limit int) ([]*Snapshot, error)
	ListDepartmentSnapshots(ctx context.Context, db *gorm.DB, orgID snowflake.ID, period string) ([]*Snapshot, error)
}
