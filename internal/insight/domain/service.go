package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	licensedomain "github.com/smallbiznis/seatwise/internal/license/domain"
)

//go:generate mockgen -source=service.go -destination=../mocks/mock_service.go -package=mocks
type Service interface {
	GenerateUnusedLicenseInsights(ctx context.Context, req GenerateRequest) (*GenerationReport, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	UpdateStatus(ctx context.Context, req UpdateStatusRequest) (*Response, error)
}

type GenerateRequest struct {
	IdempotencyKey string
}

type ListRequest struct {
	Type   string `form:"type" binding:"omitempty,insight_type"`
	Status string `form:"status" binding:"omitempty,insight_status"`
	Limit  int    `form:"limit" binding:"omitempty,gte=1,lte=500"`
}

type UpdateStatusRequest struct {
	ID     string `json:"-"`
	Status string `json:"status" binding:"required,insight_status"`
}

type Response struct {
	ID               string                  `json:"id"`
	OrganizationID   string                  `json:"organization_id"`
	LicenseID        *string                 `json:"license_id,omitempty"`
	DepartmentID     *string                 `json:"department_id,omitempty"`
	Type             string                  `json:"type"`
	Severity         string                  `json:"severity"`
	Title            string                  `json:"title"`
	Description      string                  `json:"description"`
	PotentialSavings *float64                `json:"potential_savings,omitempty"`
	Confidence       float64                 `json:"confidence"`
	Status           string                  `json:"status"`
	Metadata         map[string]any          `json:"metadata"`
	License          *licensedomain.Response `json:"license"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

var (
	ErrInvalidOrganization     = errors.New("invalid_organization")
	ErrInvalidID               = errors.New("invalid_id")
	ErrInvalidStatus           = errors.New("invalid_status")
	ErrInvalidType             = errors.New("invalid_type")
	ErrInvalidStatusTransition = errors.New("invalid_status_transition")
	ErrInvalidIdempotencyKey   = errors.New("invalid_idempotency_key")
	ErrNotFound                = errors.New("insight_not_found")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
