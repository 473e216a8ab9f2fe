package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	TypeUnusedLicense    = "unused_license"
	TypeDuplicateLicense = "duplicate_license"
	TypeCostOptimization = "cost_optimization"
	TypeRenewalRisk      = "renewal_risk"
	TypeOverusage        = "overusage"
)

const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

const (
	StatusNew          = "new"
	StatusAcknowledged = "acknowledged"
	StatusResolved     = "resolved"
	StatusDismissed    = "dismissed"
)

// Insight is a derived recommendation about an organization's licenses.
type Insight struct {
	ID               snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID            snowflake.ID      `gorm:"not null;index:idx_insights_org_created,priority:1" json:"organization_id"`
	LicenseID        *snowflake.ID     `gorm:"column:license_id;index" json:"license_id,omitempty"`
	DepartmentID     *snowflake.ID     `gorm:"column:department_id;index" json:"department_id,omitempty"`
	Type             string            `gorm:"type:text;not null" json:"type"`
	Severity         string            `gorm:"type:text;not null" json:"severity"`
	Title            string            `gorm:"type:text;not null" json:"title"`
	Description      string            `gorm:"type:text;not null" json:"description"`
	PotentialSavings *float64          `gorm:"column:potential_savings" json:"potential_savings,omitempty"`
	Confidence       float64           `gorm:"not null;default:0" json:"confidence"`
	Status           string            `gorm:"type:text;not null;index" json:"status"`
	Metadata         datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	CreatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_insights_org_created,priority:2" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Insight) TableName() string { return "insights" }

// GenerationRun records the report of an idempotent generation request.
type GenerationRun struct {
	ID             snowflake.ID                         `gorm:"primaryKey"`
	OrgID          snowflake.ID                         `gorm:"not null;uniqueIndex:ux_insight_runs_org_key,priority:1"`
	IdempotencyKey string                               `gorm:"column:idempotency_key;type:text;not null;uniqueIndex:ux_insight_runs_org_key,priority:2"`
	RunID          string                               `gorm:"column:run_id;type:text;not null"`
	Report         datatypes.JSONType[GenerationReport] `gorm:"type:jsonb;not null"`
	CreatedAt      time.Time                            `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (GenerationRun) TableName() string { return "insight_generation_runs" }

type GenerationFailure struct {
	LicenseID string `json:"licenseId"`
	Error     string `json:"error"`
}

// GenerationReport summarizes one insight generator run.
type GenerationReport struct {
	RunID    string              `json:"runId"`
	Created  int                 `json:"created"`
	Skipped  int                 `json:"skipped"`
	Failures []GenerationFailure `json:"failures"`
	Replayed bool                `json:"replayed,omitempty"`
}

var transitions = map[string][]string{
	StatusNew:          {StatusAcknowledged, StatusDismissed},
	StatusAcknowledged: {StatusResolved},
}

// CanTransition reports whether an insight may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func ValidStatus(value string) bool {
	switch value {
	case StatusNew, StatusAcknowledged, StatusResolved, StatusDismissed:
		return true
	}
	return false
}

func ValidType(value string) bool {
	switch value {
	case TypeUnusedLicense, TypeDuplicateLicense, TypeCostOptimization, TypeRenewalRisk, TypeOverusage:
		return true
	}
	return false
}
