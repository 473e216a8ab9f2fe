package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/seatwise/internal/gamification/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

var scoreUniqueKey = []clause.Column{
	{Name: "org_id"},
	{Name: "department_id"},
	{Name: "period"},
	{Name: "period_type"},
}

var scoreUpdateColumns = []string{
	"efficiency_score",
	"utilization_rate",
	"budget_adherence",
	"total_spend",
	"budget_allocated",
	"licenses_managed",
	"active_licenses",
	"total_seats",
	"used_seats",
	"potential_savings",
	"actual_savings",
	"leaderboard_rank",
	"previous_rank",
	"badges",
	"updated_at",
}

func (r *repo) UpsertScore(ctx context.Context, db *gorm.DB, score *domain.Score) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   scoreUniqueKey,
			DoUpdates: clause.AssignmentColumns(scoreUpdateColumns),
		}).
		Create(score).Error
}

func (r *repo) SetScoreBadges(ctx context.Context, db *gorm.DB, score *domain.Score, badges []string) error {
	return db.WithContext(ctx).
		Model(&domain.Score{}).
		Where("org_id = ? AND department_id = ? AND period = ? AND period_type = ?",
			score.OrgID, score.DepartmentID, score.Period, score.PeriodType).
		Update("badges", datatypes.NewJSONSlice(badges)).Error
}

func (r *repo) PreviousRank(ctx context.Context, db *gorm.DB, orgID, departmentID snowflake.ID, periodType, excludePeriod string) (*int, error) {
	var score domain.Score
	err := db.WithContext(ctx).
		Select("leaderboard_rank").
		Where("org_id = ? AND department_id = ? AND period_type = ? AND period <> ?", orgID, departmentID, periodType, excludePeriod).
		Order("created_at desc, id desc").
		Take(&score).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	rank := score.Rank
	return &rank, nil
}

func (r *repo) ListScores(ctx context.Context, db *gorm.DB, orgID snowflake.ID, period, periodType string) ([]*domain.Score, error) {
	var scores []*domain.Score
	err := db.WithContext(ctx).
		Where("org_id = ? AND period = ? AND period_type = ?", orgID, period, periodType).
		Order("efficiency_score desc, leaderboard_rank asc, id asc").
		Find(&scores).Error
	if err != nil {
		return nil, err
	}
	return scores, nil
}

func (r *repo) ListDepartmentHistory(ctx context.Context, db *gorm.DB, orgID, departmentID snowflake.ID, periodType string, limit int) ([]*domain.Score, error) {
	var scores []*domain.Score
	err := db.WithContext(ctx).
		Where("org_id = ? AND department_id = ? AND period_type = ?", orgID, departmentID, periodType).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&scores).Error
	if err != nil {
		return nil, err
	}
	return scores, nil
}

func (r *repo) InsertBadge(ctx context.Context, db *gorm.DB, badge *domain.Badge) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO badges (id, org_id, department_id, badge_type, earned_date, period, criteria, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		badge.ID,
		badge.OrgID,
		badge.DepartmentID,
		badge.BadgeType,
		badge.EarnedDate,
		badge.Period,
		badge.Criteria,
		badge.CreatedAt,
	).Error
}

func (r *repo) ListBadges(ctx context.Context, db *gorm.DB, orgID snowflake.ID, departmentID *snowflake.ID) ([]*domain.Badge, error) {
	var badges []*domain.Badge
	stmt := db.WithContext(ctx).Where("org_id = ?", orgID)
	if departmentID != nil {
		stmt = stmt.Where("department_id = ?", *departmentID)
	}
	err := stmt.
		Order("earned_date desc, id desc").
		Find(&badges).Error
	if err != nil {
		return nil, err
	}
	return badges, nil
}
