package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/seatwise/internal/insight/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, insight *domain.Insight) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO insights (id, org_id, license_id, department_id, type, severity, title, description,
		   potential_savings, confidence, status, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		insight.ID,
		insight.OrgID,
		insight.LicenseID,
		insight.DepartmentID,
		insight.Type,
		insight.Severity,
		insight.Title,
		insight.Description,
		insight.PotentialSavings,
		insight.Confidence,
		insight.Status,
		insight.Metadata,
		insight.CreatedAt,
		insight.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Insight, error) {
	var insight domain.Insight
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Take(&insight).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &insight, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListFilter) ([]*domain.Insight, error) {
	var insights []*domain.Insight
	stmt := db.WithContext(ctx).
		Model(&domain.Insight{}).
		Where("org_id = ?", orgID)
	if filter.Type != "" {
		stmt = stmt.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}
	err := stmt.
		Order("created_at desc, id desc").
		Find(&insights).Error
	if err != nil {
		return nil, err
	}
	return insights, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, from, to string, updatedAt time.Time) (bool, error) {
	tx := db.WithContext(ctx).Exec(
		`UPDATE insights SET status = ?, updated_at = ? WHERE org_id = ? AND id = ? AND status = ?`,
		to,
		updatedAt,
		orgID,
		id,
		from,
	)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

func (r *repo) HasOpenInsight(ctx context.Context, db *gorm.DB, orgID, licenseID snowflake.ID, insightType string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM insights
		 WHERE org_id = ? AND license_id = ? AND type = ? AND status IN ?`,
		orgID,
		licenseID,
		insightType,
		[]string{domain.StatusNew, domain.StatusAcknowledged},
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) CountResolvedCreatedBetween(ctx context.Context, db *gorm.DB, orgID snowflake.ID, departmentID *snowflake.ID, start, end time.Time) (int64, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Insight{}).
		Where("org_id = ? AND status = ? AND created_at >= ? AND created_at < ?", orgID, domain.StatusResolved, start, end)
	if departmentID != nil {
		stmt = stmt.Where("department_id = ?", *departmentID)
	}
	var count int64
	if err := stmt.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repo) FindRun(ctx context.Context, db *gorm.DB, orgID snowflake.ID, key string) (*domain.GenerationRun, error) {
	var run domain.GenerationRun
	err := db.WithContext(ctx).
		Where("org_id = ? AND idempotency_key = ?", orgID, key).
		Take(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

func (r *repo) InsertRun(ctx context.Context, db *gorm.DB, run *domain.GenerationRun) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO insight_generation_runs (id, org_id, idempotency_key, run_id, report, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.OrgID,
		run.IdempotencyKey,
		run.RunID,
		run.Report,
		run.CreatedAt,
	).Error
}
