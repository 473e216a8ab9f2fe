package domain

import (
	"context"
	"errors"
	"time"
)

//go:generate mockgen -source=service.go -destination=../mocks/mock_service.go -package=mocks
type Service interface {
	CalculateScores(ctx context.Context, req CalculateRequest) (*ScoringReport, error)
	Leaderboard(ctx context.Context, req LeaderboardRequest) ([]LeaderboardEntry, error)
	DepartmentPerformance(ctx context.Context, req PerformanceRequest) ([]Score, error)
	DepartmentBadges(ctx context.Context, departmentID string) ([]BadgeResponse, error)
	AwardBadge(ctx context.Context, req AwardBadgeRequest) (*BadgeResponse, error)
}

type CalculateRequest struct {
	PeriodType string `json:"period_type" binding:"omitempty,period_type"`
	Period     string `json:"period"`
}

type LeaderboardRequest struct {
	PeriodType string `form:"period_type" binding:"omitempty,period_type"`
	Period     string `form:"period"`
}

type PerformanceRequest struct {
	DepartmentID string `json:"-"`
	PeriodType   string `form:"period_type" binding:"omitempty,period_type"`
	Limit        int    `form:"limit" binding:"omitempty,gte=1,lte=120"`
}

type AwardBadgeRequest struct {
	DepartmentID string    `json:"department_id" binding:"required"`
	BadgeType    string    `json:"badge_type" binding:"required"`
	Period       string    `json:"period"`
	Criteria     *Criteria `json:"criteria"`
}

type ScoringFailure struct {
	DepartmentID string `json:"departmentId"`
	Error        string `json:"error"`
}

type ScoringReport struct {
	Period     string           `json:"period"`
	PeriodType string           `json:"periodType"`
	Scored     int              `json:"scored"`
	Failures   []ScoringFailure `json:"failures"`
}

type LeaderboardEntry struct {
	Score
	Department string `json:"department"`
	RankChange int    `json:"rank_change"`
	Medal      string `json:"medal,omitempty"`
}

type BadgeResponse struct {
	ID           string    `json:"id"`
	DepartmentID string    `json:"department_id"`
	BadgeType    string    `json:"badge_type"`
	EarnedDate   time.Time `json:"earned_date"`
	Period       string    `json:"period"`
	Criteria     Criteria  `json:"criteria"`
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidDepartment   = errors.New("invalid_department")
	ErrInvalidBadgeType    = errors.New("invalid_badge_type")
	ErrDepartmentNotFound  = errors.New("department_not_found")
	ErrAdminRequired       = errors.New("admin_access_required")
)
