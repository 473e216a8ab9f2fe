package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=../mocks/mock_service.go -package=mocks
type Service interface {
	List(ctx context.Context) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
	// NameIndex maps department IDs to names for the current organization.
	NameIndex(ctx context.Context) (map[snowflake.ID]string, error)
}

type CreateRequest struct {
	Name         string          `json:"name" binding:"required"`
	Budget       decimal.Decimal `json:"budget"`
	ManagerEmail *string         `json:"manager_email" binding:"omitempty,email"`
}

type UpdateRequest struct {
	ID           string           `json:"-"`
	Name         *string          `json:"name"`
	Budget       *decimal.Decimal `json:"budget"`
	ManagerEmail *string          `json:"manager_email" binding:"omitempty,email"`
}

type Response struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	Budget         float64   `json:"budget"`
	ManagerEmail   *string   `json:"manager_email,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidBudget       = errors.New("invalid_budget")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("department_not_found")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
