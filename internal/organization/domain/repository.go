package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrganization(ctx context.Context, org Organization) error
	DomainExists(ctx context.Context, domain string) (bool, error)
	GetOrganization(ctx context.Context, id snowflake.ID) (*Organization, error)
	UpdateSettings(ctx context.Context, id snowflake.ID, settings Settings) error
	AddMember(ctx context.Context, member OrganizationMember) error
	// FindMember returns the membership in orgID, or the earliest membership when orgID is zero.
	FindMember(ctx context.Context, userID snowflake.ID, orgID snowflake.ID) (*OrganizationMember, error)
	ListOrganizationIDs(ctx context.Context) ([]snowflake.ID, error)
}
