package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// UpsertScore inserts or overwrites the row keyed by (org, department, period, period type).
	UpsertScore(ctx context.Context, db *gorm.DB, score *Score) error
	SetScoreBadges(ctx context.Context, db *gorm.DB, score *Score, badges []string) error
	// PreviousRank returns the rank of the latest inserted score for the period type outside excludePeriod.
	PreviousRank(ctx context.Context, db *gorm.DB, orgID, departmentID snowflake.ID, periodType, excludePeriod string) (*int, error)
	ListScores(ctx context.Context, db *gorm.DB, orgID snowflake.ID, period, periodType string) ([]*Score, error)
	ListDepartmentHistory(ctx context.Context, db *gorm.DB, orgID, departmentID snowflake.ID, periodType string, limit int) ([]*Score, error)

	InsertBadge(ctx context.Context, db *gorm.DB, badge *Badge) error
	ListBadges(ctx context.Context, db *gorm.DB, orgID snowflake.ID, departmentID *snowflake.ID) ([]*Badge, error)
}
