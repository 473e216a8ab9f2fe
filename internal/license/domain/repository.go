package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	Category string
	Status   string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, license *License) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*License, error)
	FindByIDs(ctx context.Context, db *gorm.DB, orgID snowflake.ID, ids []snowflake.ID) ([]*License, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListFilter) ([]*License, error)
	ListActive(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]*License, error)
	Update(ctx context.Context, db *gorm.DB, license *License) error
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (int64, error)
	DepartmentExists(ctx context.Context, db *gorm.DB, orgID, departmentID snowflake.ID) (bool, error)

	InsertUsage(ctx context.Context, db *gorm.DB, record *UsageRecord) error
	ListUsage(ctx context.Context, db *gorm.DB, orgID, licenseID snowflake.ID) ([]UsageRecord, error)
}
