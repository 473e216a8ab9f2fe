package domain

import (
	"context"
	"errors"
	"io"
	"math"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=../mocks/mock_service.go -package=mocks
type Service interface {
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
	RecordUsage(ctx context.Context, req RecordUsageRequest) (*UsageRecord, error)
	ListUsage(ctx context.Context, licenseID string) ([]UsageRecord, error)
	// Export writes the filtered license list as an XLSX workbook.
	Export(ctx context.Context, req ListRequest, w io.Writer) error
}

type ListRequest struct {
	Category string `form:"category"`
	Status   string `form:"status" binding:"omitempty,license_status"`
}

type CreateRequest struct {
	Vendor       string          `json:"vendor" binding:"required"`
	Name         string          `json:"name" binding:"required"`
	Category     string          `json:"category"`
	LicenseType  string          `json:"license_type" binding:"required,oneof=per_user per_device enterprise"`
	TotalSeats   int             `json:"total_seats" binding:"gte=0"`
	UsedSeats    int             `json:"used_seats" binding:"gte=0"`
	CostPerSeat  decimal.Decimal `json:"cost_per_seat"`
	BillingCycle string          `json:"billing_cycle" binding:"required,billing_cycle"`
	PurchaseDate string          `json:"purchase_date"`
	RenewalDate  string          `json:"renewal_date" binding:"required"`
	Status       string          `json:"status" binding:"omitempty,license_status"`
	DepartmentID string          `json:"department_id"`
}

type UpdateRequest struct {
	ID           string           `json:"-"`
	Vendor       *string          `json:"vendor"`
	Name         *string          `json:"name"`
	Category     *string          `json:"category"`
	LicenseType  *string          `json:"license_type" binding:"omitempty,oneof=per_user per_device enterprise"`
	TotalSeats   *int             `json:"total_seats" binding:"omitempty,gte=0"`
	UsedSeats    *int             `json:"used_seats" binding:"omitempty,gte=0"`
	CostPerSeat  *decimal.Decimal `json:"cost_per_seat"`
	BillingCycle *string          `json:"billing_cycle" binding:"omitempty,billing_cycle"`
	PurchaseDate *string          `json:"purchase_date"`
	RenewalDate  *string          `json:"renewal_date"`
	Status       *string          `json:"status" binding:"omitempty,license_status"`
	DepartmentID *string          `json:"department_id"`
}

type RecordUsageRequest struct {
	LicenseID      string  `json:"-"`
	UserEmail      string  `json:"user_email" binding:"required,email"`
	LastActiveDate string  `json:"last_active_date" binding:"required"`
	UsageHours     float64 `json:"usage_hours" binding:"gte=0"`
	IsActive       *bool   `json:"is_active"`
}

// Response is a license enriched with values computed at read time.
type Response struct {
	License
	ID               string  `json:"id"`
	OrganizationID   string  `json:"organization_id"`
	DepartmentID     *string `json:"department_id,omitempty"`
	UtilizationRate  int     `json:"utilization_rate"`
	DaysUntilRenewal int     `json:"days_until_renewal"`
}

// Enrich computes utilizationRate and daysUntilRenewal for the given instant.
func Enrich(l *License, now time.Time) Response {
	resp := Response{
		License:          *l,
		ID:               l.ID.String(),
		OrganizationID:   l.OrgID.String(),
		UtilizationRate:  UtilizationRate(l.UsedSeats, l.TotalSeats),
		DaysUntilRenewal: DaysUntil(l.RenewalDate, now),
	}
	if l.DepartmentID != nil {
		id := l.DepartmentID.String()
		resp.DepartmentID = &id
	}
	return resp
}

// UtilizationRate is round(used/total*100), or 0 without seats.
func UtilizationRate(used, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(used) / float64(total) * 100))
}

// DaysUntil rounds the remaining time up to whole days; past dates yield non-positive values.
func DaysUntil(target, now time.Time) int {
	return int(math.Ceil(float64(target.Sub(now).Milliseconds()) / float64(24*time.Hour/time.Millisecond)))
}

// TotalCost is seats × costPerSeat rounded to cents.
func TotalCost(seats int, costPerSeat decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(seats)).Mul(costPerSeat).Round(2)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidVendor       = errors.New("invalid_vendor")
	ErrInvalidLicenseType  = errors.New("invalid_license_type")
	ErrInvalidBillingCycle = errors.New("invalid_billing_cycle")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrInvalidSeats        = errors.New("invalid_seats")
	ErrInvalidCost         = errors.New("invalid_cost")
	ErrInvalidDate         = errors.New("invalid_date")
	ErrInvalidDepartment   = errors.New("invalid_department")
	ErrInvalidEmail        = errors.New("invalid_email")
	ErrNotFound            = errors.New("license_not_found")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}

func ValidLicenseType(value string) bool {
	switch value {
	case TypePerUser, TypePerDevice, TypeEnterprise:
		return true
	}
	return false
}

func ValidBillingCycle(value string) bool {
	return value == BillingMonthly || value == BillingAnnual
}

func ValidStatus(value string) bool {
	switch value {
	case StatusActive, StatusExpired, StatusCancelled:
		return true
	}
	return false
}
