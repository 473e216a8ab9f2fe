package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Score is one department's efficiency result for a period.
type Score struct {
	ID               snowflake.ID                `gorm:"primaryKey" json:"id"`
	OrgID            snowflake.ID                `gorm:"not null;uniqueIndex:ux_scores_org_dept_period,priority:1" json:"organization_id"`
	DepartmentID     snowflake.ID                `gorm:"not null;index;uniqueIndex:ux_scores_org_dept_period,priority:2" json:"department_id"`
	Period           string                      `gorm:"type:text;not null;uniqueIndex:ux_scores_org_dept_period,priority:3" json:"period"`
	PeriodType       string                      `gorm:"column:period_type;type:text;not null;uniqueIndex:ux_scores_org_dept_period,priority:4" json:"period_type"`
	EfficiencyScore  int                         `gorm:"column:efficiency_score;not null" json:"efficiency_score"`
	UtilizationRate  float64                     `gorm:"column:utilization_rate;not null" json:"utilization_rate"`
	BudgetAdherence  float64                     `gorm:"column:budget_adherence;not null" json:"budget_adherence"`
	TotalSpend       float64                     `gorm:"column:total_spend;not null" json:"total_spend"`
	BudgetAllocated  float64                     `gorm:"column:budget_allocated;not null" json:"budget_allocated"`
	LicensesManaged  int                         `gorm:"column:licenses_managed;not null" json:"licenses_managed"`
	ActiveLicenses   int                         `gorm:"column:active_licenses;not null" json:"active_licenses"`
	TotalSeats       int                         `gorm:"column:total_seats;not null" json:"total_seats"`
	UsedSeats        int                         `gorm:"column:used_seats;not null" json:"used_seats"`
	PotentialSavings float64                     `gorm:"column:potential_savings;not null" json:"potential_savings"`
	ActualSavings    float64                     `gorm:"column:actual_savings;not null" json:"actual_savings"`
	Rank             int                         `gorm:"column:leaderboard_rank;not null" json:"rank"`
	PreviousRank     *int                        `gorm:"column:previous_rank" json:"previous_rank,omitempty"`
	Badges           datatypes.JSONSlice[string] `gorm:"type:jsonb;not null" json:"badges"`
	CreatedAt        time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Score) TableName() string { return "gamification_scores" }

type BadgeType string

const (
	BadgeCostChampion       BadgeType = "cost_champion"
	BadgeEfficiencyExpert   BadgeType = "efficiency_expert"
	BadgeMostImproved       BadgeType = "most_improved"
	BadgeZeroWaste          BadgeType = "zero_waste"
	BadgeGreenWarrior       BadgeType = "green_warrior"
	BadgeOptimizationMaster BadgeType = "optimization_master"
)

func (b BadgeType) Valid() bool {
	switch b {
	case BadgeCostChampion, BadgeEfficiencyExpert, BadgeMostImproved, BadgeZeroWaste, BadgeGreenWarrior, BadgeOptimizationMaster:
		return true
	}
	return false
}

type Criteria struct {
	Threshold   float64 `json:"threshold"`
	ActualValue float64 `json:"actualValue"`
	Description string  `json:"description"`
}

// Badge is an append-only achievement record.
type Badge struct {
	ID           snowflake.ID                 `gorm:"primaryKey" json:"id"`
	OrgID        snowflake.ID                 `gorm:"not null;index" json:"organization_id"`
	DepartmentID snowflake.ID                 `gorm:"not null;index" json:"department_id"`
	BadgeType    string                       `gorm:"column:badge_type;type:text;not null" json:"badge_type"`
	EarnedDate   time.Time                    `gorm:"column:earned_date;not null" json:"earned_date"`
	Period       string                       `gorm:"type:text;not null" json:"period"`
	Criteria     datatypes.JSONType[Criteria] `gorm:"type:jsonb;not null" json:"criteria"`
	CreatedAt    time.Time                    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Badge) TableName() string { return "badges" }
