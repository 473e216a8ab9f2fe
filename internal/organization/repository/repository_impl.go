package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/seatwise/internal/organization/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) CreateOrganization(ctx context.Context, org domain.Organization) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO organizations (id, name, slug, domain, settings, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		org.ID,
		org.Name,
		org.Slug,
		org.Domain,
		org.Settings,
		org.CreatedAt,
		org.UpdatedAt,
	).Error
}

func (r *repository) DomainExists(ctx context.Context, value string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM organizations WHERE LOWER(domain) = ?`,
		strings.ToLower(value),
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) GetOrganization(ctx context.Context, id snowflake.ID) (*domain.Organization, error) {
	var org domain.Organization
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&org).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}

func (r *repository) UpdateSettings(ctx context.Context, id snowflake.ID, settings domain.Settings) error {
	return r.db.WithContext(ctx).Model(&domain.Organization{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"settings":   datatypes.NewJSONType(settings),
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
}

func (r *repository) AddMember(ctx context.Context, member domain.OrganizationMember) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO organization_members (id, org_id, user_id, role, email, full_name, department_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		member.ID,
		member.OrgID,
		member.UserID,
		member.Role,
		member.Email,
		member.FullName,
		member.DepartmentID,
		member.CreatedAt,
	).Error
}

func (r *repository) FindMember(ctx context.Context, userID snowflake.ID, orgID snowflake.ID) (*domain.OrganizationMember, error) {
	stmt := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if orgID != 0 {
		stmt = stmt.Where("org_id = ?", orgID)
	}

	var member domain.OrganizationMember
	err := stmt.Order("created_at ASC, id ASC").Take(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *repository) ListOrganizationIDs(ctx context.Context) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := r.db.WithContext(ctx).Raw(
		`SELECT id FROM organizations ORDER BY created_at ASC, id ASC`,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
