package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/seatwise/internal/environmental/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) UpsertSnapshot(ctx context.Context, db *gorm.DB, snapshot *domain.Snapshot) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "org_id"}, {Name: "department_id"}, {Name: "period"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"unused_licenses",
				"co2_saved_kg",
				"energy_saved_kwh",
				"water_saved_liters",
				"tree_equivalent",
				"car_miles_equivalent",
				"cumulative_co2",
				"optimization_actions",
				"updated_at",
			}),
		}).
		Create(snapshot).Error
}

func (r *repo) SumCO2Before(ctx context.Context, db *gorm.DB, orgID snowflake.ID, period string) (float64, error) {
	var total float64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(co2_saved_kg), 0)
		 FROM environmental_impacts
		 WHERE org_id = ? AND department_id = ? AND period < ?`,
		orgID,
		domain.OrganizationScope,
		period,
	).Scan(&total).Error
	return total, err
}

func (r *repo) FindOrganizationSnapshot(ctx context.Context, db *gorm.DB, orgID snowflake.ID, period string) (*domain.Snapshot, error) {
	var snapshot domain.Snapshot
	err := db.WithContext(ctx).
		Where("org_id = ? AND department_id = ? AND period = ?", orgID, domain.OrganizationScope, period).
		Take(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}

func (r *repo) ListOrganizationSnapshots(ctx context.Context, db *gorm.DB, orgID snowflake.ID, limit int) ([]*domain.Snapshot, error) {
	var snapshots []*domain.Snapshot
	err := db.WithContext(ctx).
		Where("org_id = ? AND department_id = ?", orgID, domain.OrganizationScope).
		Order("period desc").
		Limit(limit).
		Find(&snapshots).Error
	return snapshots, err
}

func (r *repo) ListDepartmentSnapshots(ctx context.Context, db *gorm.DB, orgID snowflake.ID, period string) ([]*domain.Snapshot, error) {
	var snapshots []*domain.Snapshot
	err := db.WithContext(ctx).
		Where("org_id = ? AND department_id <> ? AND period = ?", orgID, domain.OrganizationScope, period).
		Order("co2_saved_kg desc, id asc").
		Find(&snapshots).Error
	return snapshots, err
}
