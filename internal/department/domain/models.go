package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Department is a budget-holding unit inside an organization.
type Department struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID        snowflake.ID `gorm:"not null;index" json:"organization_id"`
	Name         string       `gorm:"type:text;not null" json:"name"`
	Budget       float64      `gorm:"not null;default:0" json:"budget"`
	ManagerEmail *string      `gorm:"column:manager_email;type:text" json:"manager_email,omitempty"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Department) TableName() string { return "departments" }

// DefaultBudgets are the sample departments seeded for a new organization, in insertion order.
var DefaultBudgets = []struct {
	Name   string
	Budget float64
}{
	{Name: "Engineering", Budget: 50000},
	{Name: "Marketing", Budget: 30000},
	{Name: "Sales", Budget: 25000},
	{Name: "HR", Budget: 15000},
	{Name: "Finance", Budget: 20000},
}
