package domain

import (
	"context"
	"errors"
	"io"
)

//go:generate mockgen -source=service.go -destination=../mocks/mock_service.go -package=mocks
type Service interface {
	Calculate(ctx context.Context, req CalculateRequest) (*CalculationReport, error)
	Overview(ctx context.Context, period string) (*OverviewResponse, error)
	Trend(ctx context.Context, months int) ([]OverviewResponse, error)
	DepartmentRankings(ctx context.Context, period string) ([]RankingEntry, error)
	// Report writes the sustainability PDF for the period.
	Report(ctx context.Context, period string, w io.Writer) error
}

type CalculateRequest struct {
	Period string `json:"period"`
}

type CalculationFailure struct {
	DepartmentID string `json:"departmentId"`
	Error        string `json:"error"`
}

type CalculationReport struct {
	Period               string               `json:"period"`
	TotalUnusedLicenses  int                  `json:"totalUnusedLicenses"`
	CO2SavedKg           float64              `json:"co2SavedKg"`
	DepartmentsProcessed int                  `json:"departmentsProcessed"`
	Failures             []CalculationFailure `json:"failures"`
}

type OverviewResponse struct {
	Period              string  `json:"period"`
	UnusedLicenses      int     `json:"unused_licenses"`
	CO2SavedKg          float64 `json:"co2_saved_kg"`
	EnergySavedKWh      float64 `json:"energy_saved_kwh"`
	WaterSavedLiters    float64 `json:"water_saved_liters"`
	TreeEquivalent      float64 `json:"tree_equivalent"`
	CarMilesEquivalent  float64 `json:"car_miles_equivalent"`
	CumulativeCO2       float64 `json:"cumulative_co2"`
	OptimizationActions int     `json:"optimization_actions"`
}

type RankingEntry struct {
	OverviewResponse
	DepartmentID   string `json:"department_id"`
	DepartmentName string `json:"department_name"`
}

// ToOverview drops storage-only fields.
func ToOverview(s *Snapshot) OverviewResponse {
	return OverviewResponse{
		Period:              s.Period,
		UnusedLicenses:      s.UnusedLicenses,
		CO2SavedKg:          s.CO2SavedKg,
		EnergySavedKWh:      s.EnergySavedKWh,
		WaterSavedLiters:    s.WaterSavedLiters,
		TreeEquivalent:      s.TreeEquivalent,
		CarMilesEquivalent:  s.CarMilesEquivalent,
		CumulativeCO2:       s.CumulativeCO2,
		OptimizationActions: s.OptimizationActions,
	}
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidMonths       = errors.New("invalid_months")
)
