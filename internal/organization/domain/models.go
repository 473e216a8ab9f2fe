// Package domain contains persistence models for the organization service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Organization represents a tenant.
type Organization struct {
	ID        snowflake.ID                 `gorm:"primaryKey" json:"id"`
	Name      string                       `gorm:"type:text;not null" json:"name"`
	Slug      string                       `gorm:"type:text;not null;index" json:"slug"`
	Domain    *string                      `gorm:"type:text;uniqueIndex:ux_organizations_domain" json:"domain,omitempty"`
	Settings  datatypes.JSONType[Settings] `gorm:"type:jsonb;not null" json:"settings"`
	CreatedAt time.Time                    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time                    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Organization) TableName() string { return "organizations" }

// OrganizationMember is a user's profile inside an organization.
type OrganizationMember struct {
	ID           snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID        snowflake.ID  `gorm:"not null;index;uniqueIndex:ux_org_user,priority:1" json:"org_id"`
	UserID       snowflake.ID  `gorm:"not null;index;uniqueIndex:ux_org_user,priority:2" json:"user_id"`
	Role         string        `gorm:"type:text;not null" json:"role"`
	Email        string        `gorm:"type:text;not null" json:"email"`
	FullName     string        `gorm:"column:full_name;type:text" json:"full_name"`
	DepartmentID *snowflake.ID `gorm:"column:department_id" json:"department_id,omitempty"`
	CreatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (OrganizationMember) TableName() string { return "organization_members" }

type AlertThresholds struct {
	UnusedDays       int `json:"unusedDays"`
	RenewalDays      int `json:"renewalDays"`
	OverusagePercent int `json:"overusagePercent"`
}

type Settings struct {
	Currency        string          `json:"currency"`
	Timezone        string          `json:"timezone"`
	AlertThresholds AlertThresholds `json:"alertThresholds"`
}

func DefaultSettings() Settings {
	return Settings{
		Currency: "USD",
		Timezone: "UTC",
		AlertThresholds: AlertThresholds{
			UnusedDays:       30,
			RenewalDays:      30,
			OverusagePercent: 10,
		},
	}
}
