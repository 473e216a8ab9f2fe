package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	TypePerUser    = "per_user"
	TypePerDevice  = "per_device"
	TypeEnterprise = "enterprise"
)

const (
	BillingMonthly = "monthly"
	BillingAnnual  = "annual"
)

const (
	StatusActive    = "active"
	StatusExpired   = "expired"
	StatusCancelled = "cancelled"
)

// ActiveWindow is how recently a seat must have been used to count as active.
const ActiveWindow = 30 * 24 * time.Hour

// License is a purchased software subscription.
type License struct {
	ID           snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID        snowflake.ID  `gorm:"not null;index:idx_licenses_org_status,priority:1" json:"organization_id"`
	DepartmentID *snowflake.ID `gorm:"column:department_id;index" json:"department_id,omitempty"`
	Vendor       string        `gorm:"type:text;not null" json:"vendor"`
	Name         string        `gorm:"type:text;not null" json:"name"`
	Category     string        `gorm:"type:text;not null;default:''" json:"category"`
	LicenseType  string        `gorm:"column:license_type;type:text;not null" json:"license_type"`
	TotalSeats   int           `gorm:"column:total_seats;not null;default:0" json:"total_seats"`
	UsedSeats    int           `gorm:"column:used_seats;not null;default:0" json:"used_seats"`
	CostPerSeat  float64       `gorm:"column:cost_per_seat;not null;default:0" json:"cost_per_seat"`
	TotalCost    float64       `gorm:"column:total_cost;not null;default:0" json:"total_cost"`
	BillingCycle string        `gorm:"column:billing_cycle;type:text;not null" json:"billing_cycle"`
	PurchaseDate time.Time     `gorm:"column:purchase_date;not null" json:"purchase_date"`
	RenewalDate  time.Time     `gorm:"column:renewal_date;not null" json:"renewal_date"`
	Status       string        `gorm:"type:text;not null;index:idx_licenses_org_status,priority:2" json:"status"`
	CreatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (License) TableName() string { return "licenses" }

// UnusedSeats never goes below zero.
func (l License) UnusedSeats() int {
	if l.UsedSeats >= l.TotalSeats {
		return 0
	}
	return l.TotalSeats - l.UsedSeats
}

// AnnualizationFactor converts a per-cycle seat cost into a yearly one.
func (l License) AnnualizationFactor() int {
	if l.BillingCycle == BillingMonthly {
		return 12
	}
	return 1
}

// UsageRecord is a per-user activity sample for a license.
type UsageRecord struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID          snowflake.ID `gorm:"not null;index" json:"organization_id"`
	LicenseID      snowflake.ID `gorm:"column:license_id;not null;index" json:"license_id"`
	UserEmail      string       `gorm:"column:user_email;type:text;not null" json:"user_email"`
	LastActiveDate time.Time    `gorm:"column:last_active_date;not null" json:"last_active_date"`
	UsageHours     float64      `gorm:"column:usage_hours;not null;default:0" json:"usage_hours"`
	IsActive       bool         `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (UsageRecord) TableName() string { return "license_usage" }

// CountActiveUsers counts records whose last activity falls inside the active window before now.
func CountActiveUsers(records []UsageRecord, now time.Time) int {
	cutoff := now.Add(-ActiveWindow)
	active := 0
	for _, record := range records {
		if record.LastActiveDate.After(cutoff) {
			active++
		}
	}
	return active
}
