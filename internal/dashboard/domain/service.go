package domain

import (
	"context"
	"errors"
)

//go:generate mockgen -source=service.go -destination=../mocks/mock_service.go -package=mocks
type Service interface {
	Overview(ctx context.Context) (*Overview, error)
}

// Overview summarizes the organization's license portfolio.
type Overview struct {
	TotalLicenses    int     `json:"total_licenses"`
	ActiveLicenses   int     `json:"active_licenses"`
	TotalCost        float64 `json:"total_cost"`
	TotalSeats       int     `json:"total_seats"`
	UsedSeats        int     `json:"used_seats"`
	UtilizationRate  int     `json:"utilization_rate"`
	UpcomingRenewals int     `json:"upcoming_renewals"`
	RecentInsights   int     `json:"recent_insights"`
	PotentialSavings float64 `json:"potential_savings"`
}

var ErrInvalidOrganization = errors.New("invalid_organization")
