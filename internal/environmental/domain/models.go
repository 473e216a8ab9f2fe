package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// OrganizationScope is the department id of the organization-wide snapshot.
const OrganizationScope snowflake.ID = 0

// Snapshot is the estimated environmental effect of idle seats for one period.
type Snapshot struct {
	ID                  snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID               snowflake.ID `gorm:"not null;uniqueIndex:ux_impact_org_dept_period,priority:1" json:"organization_id"`
	DepartmentID        snowflake.ID `gorm:"column:department_id;not null;default:0;uniqueIndex:ux_impact_org_dept_period,priority:2" json:"-"`
	Period              string       `gorm:"type:text;not null;uniqueIndex:ux_impact_org_dept_period,priority:3" json:"period"`
	UnusedLicenses      int          `gorm:"column:unused_licenses;not null" json:"unused_licenses"`
	CO2SavedKg          float64      `gorm:"column:co2_saved_kg;not null" json:"co2_saved_kg"`
	EnergySavedKWh      float64      `gorm:"column:energy_saved_kwh;not null" json:"energy_saved_kwh"`
	WaterSavedLiters    float64      `gorm:"column:water_saved_liters;not null" json:"water_saved_liters"`
	TreeEquivalent      float64      `gorm:"column:tree_equivalent;not null" json:"tree_equivalent"`
	CarMilesEquivalent  float64      `gorm:"column:car_miles_equivalent;not null" json:"car_miles_equivalent"`
	CumulativeCO2       float64      `gorm:"column:cumulative_co2;not null" json:"cumulative_co2"`
	OptimizationActions int          `gorm:"column:optimization_actions;not null" json:"optimization_actions"`
	CreatedAt           time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt           time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Snapshot) TableName() string { return "environmental_impacts" }

// IsOrganizationLevel reports whether the snapshot covers the whole organization.
func (s Snapshot) IsOrganizationLevel() bool {
	return s.DepartmentID == OrganizationScope
}
