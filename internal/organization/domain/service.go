package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleUser    = "user"
)

//go:generate mockgen -source=service.go -destination=../mocks/mock_service.go -package=mocks
type Service interface {
	Create(ctx context.Context, userID snowflake.ID, req CreateOrganizationRequest) (*CurrentOrganizationResponse, error)
	GetCurrent(ctx context.Context) (*CurrentOrganizationResponse, error)
	UpdateSettings(ctx context.Context, req UpdateSettingsRequest) (*OrganizationResponse, error)
	// ResolveProfile finds the caller's membership, preferring orgHint when it is set.
	ResolveProfile(ctx context.Context, userID snowflake.ID, orgHint string) (*Profile, error)
	ListOrganizationIDs(ctx context.Context) ([]snowflake.ID, error)
}

type CreateOrganizationRequest struct {
	Name   string `json:"name" binding:"required"`
	Domain string `json:"domain"`

	OwnerEmail    string `json:"-"`
	OwnerFullName string `json:"-"`
}

type UpdateSettingsRequest struct {
	Currency        *string          `json:"currency" binding:"omitempty,len=3"`
	Timezone        *string          `json:"timezone"`
	AlertThresholds *AlertThresholds `json:"alertThresholds"`
}

type OrganizationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Domain    *string   `json:"domain,omitempty"`
	Settings  Settings  `json:"settings"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CurrentOrganizationResponse struct {
	Organization OrganizationResponse `json:"organization"`
	Role         string               `json:"role"`
}

type Profile struct {
	ID           snowflake.ID
	OrgID        snowflake.ID
	UserID       snowflake.ID
	Role         string
	Email        string
	FullName     string
	DepartmentID *snowflake.ID
}

func (p Profile) IsAdmin() bool { return p.Role == RoleAdmin }

var (
	ErrInvalidUser         = errors.New("invalid_user")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidDomain       = errors.New("invalid_domain")
	ErrInvalidCurrency     = errors.New("invalid_currency")
	ErrInvalidTimezone     = errors.New("invalid_timezone")
	ErrInvalidThresholds   = errors.New("invalid_alert_thresholds")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrDomainTaken         = errors.New("domain_taken")
	ErrNotFound            = errors.New("organization_not_found")
	ErrProfileNotFound     = errors.New("profile_not_found")
	ErrAdminRequired       = errors.New("admin_access_required")
)
