package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/seatwise/internal/license/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const licenseColumns = `id, org_id, department_id, vendor, name, category, license_type, total_seats, used_seats,
	cost_per_seat, total_cost, billing_cycle, purchase_date, renewal_date, status, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, license *domain.License) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO licenses (`+licenseColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		license.ID,
		license.OrgID,
		license.DepartmentID,
		license.Vendor,
		license.Name,
		license.Category,
		license.LicenseType,
		license.TotalSeats,
		license.UsedSeats,
		license.CostPerSeat,
		license.TotalCost,
		license.BillingCycle,
		license.PurchaseDate,
		license.RenewalDate,
		license.Status,
		license.CreatedAt,
		license.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.License, error) {
	var license domain.License
	err := db.WithContext(ctx).Raw(
		`SELECT `+licenseColumns+`
		 FROM licenses WHERE org_id = ? AND id = ?`,
		orgID,
		id,
	).Scan(&license).Error
	if err != nil {
		return nil, err
	}
	if license.ID == 0 {
		return nil, nil
	}
	return &license, nil
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, orgID snowflake.ID, ids []snowflake.ID) ([]*domain.License, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var licenses []*domain.License
	err := db.WithContext(ctx).
		Where("org_id = ? AND id IN ?", orgID, ids).
		Find(&licenses).Error
	if err != nil {
		return nil, err
	}
	return licenses, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListFilter) ([]*domain.License, error) {
	var licenses []*domain.License
	stmt := db.WithContext(ctx).
		Model(&domain.License{}).
		Where("org_id = ?", orgID)
	if filter.Category != "" {
		stmt = stmt.Where("category = ?", filter.Category)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	err := stmt.
		Order("name asc, id asc").
		Find(&licenses).Error
	if err != nil {
		return nil, err
	}
	return licenses, nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]*domain.License, error) {
	return r.List(ctx, db, orgID, domain.ListFilter{Status: domain.StatusActive})
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, license *domain.License) error {
	return db.WithContext(ctx).Exec(
		`UPDATE licenses
		 SET department_id = ?, vendor = ?, name = ?, category = ?, license_type = ?, total_seats = ?,
		     used_seats = ?, cost_per_seat = ?, total_cost = ?, billing_cycle = ?, purchase_date = ?,
		     renewal_date = ?, status = ?, updated_at = ?
		 WHERE org_id = ? AND id = ?`,
		license.DepartmentID,
		license.Vendor,
		license.Name,
		license.Category,
		license.LicenseType,
		license.TotalSeats,
		license.UsedSeats,
		license.CostPerSeat,
		license.TotalCost,
		license.BillingCycle,
		license.PurchaseDate,
		license.RenewalDate,
		license.Status,
		license.UpdatedAt,
		license.OrgID,
		license.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).Exec(`DELETE FROM licenses WHERE org_id = ? AND id = ?`, orgID, id)
	return result.RowsAffected, result.Error
}

func (r *repo) DepartmentExists(ctx context.Context, db *gorm.DB, orgID, departmentID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM departments WHERE org_id = ? AND id = ?`,
		orgID,
		departmentID,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) InsertUsage(ctx context.Context, db *gorm.DB, record *domain.UsageRecord) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO license_usage (id, org_id, license_id, user_email, last_active_date, usage_hours, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.OrgID,
		record.LicenseID,
		record.UserEmail,
		record.LastActiveDate,
		record.UsageHours,
		record.IsActive,
		record.CreatedAt,
	).Error
}

func (r *repo) ListUsage(ctx context.Context, db *gorm.DB, orgID, licenseID snowflake.ID) ([]domain.UsageRecord, error) {
	var records []domain.UsageRecord
	err := db.WithContext(ctx).
		Where("org_id = ? AND license_id = ?", orgID, licenseID).
		Order("last_active_date desc, id desc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
