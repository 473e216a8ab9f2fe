package service

import (
	"context"
	"fmt"
	"io"

	"github.com/smallbiznis/seatwise/internal/providers/pdf"
)

const reportTrendMonths = 6

func (s *Service) Report(ctx context.Context, periodValue string, w io.Writer) error {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return err
	}
	overview, err := s.Overview(ctx, periodValue)
	if err != nil {
		return err
	}
	trend, err := s.Trend(ctx, reportTrendMonths)
	if err != nil {
		return err
	}
	rankings, err := s.DepartmentRankings(ctx, overview.Period)
	if err != nil {
		return err
	}

	organizationName := orgID.String()
	org, err := s.organizations.GetOrganization(ctx, orgID)
	if err != nil {
		return err
	}
	if org != nil {
		organizationName = org.Name
	}

	report := pdf.SustainabilityReport{
		Organization: organizationName,
		Period:       overview.Period,
		GeneratedAt:  s.clock.Now().UTC().Format("2006-01-02 15:04 MST"),
		Summary: []pdf.Metric{
			{Label: "Unused seats", Value: fmt.Sprintf("%d", overview.UnusedLicenses)},
			{Label: "CO2 saved", Value: fmt.Sprintf("%.2f kg", overview.CO2SavedKg)},
			{Label: "Energy saved", Value: fmt.Sprintf("%.2f kWh", overview.EnergySavedKWh)},
			{Label: "Water saved", Value: fmt.Sprintf("%.2f L", overview.WaterSavedLiters)},
			{Label: "Tree equivalent", Value: fmt.Sprintf("%.1f", overview.TreeEquivalent)},
			{Label: "Car miles avoided", Value: fmt.Sprintf("%.2f", overview.CarMilesEquivalent)},
			{Label: "Cumulative CO2", Value: fmt.Sprintf("%.2f kg", overview.CumulativeCO2)},
			{Label: "Optimization actions", Value: fmt.Sprintf("%d", overview.OptimizationActions)},
		},
	}
	for _, point := range trend {
		report.Trend = append(report.Trend, pdf.TrendRow{
			Period:        point.Period,
			Unused:        point.UnusedLicenses,
			CO2SavedKg:    point.CO2SavedKg,
			CumulativeCO2: point.CumulativeCO2,
		})
	}
	for _, entry := range rankings {
		report.Rankings = append(report.Rankings, pdf.RankingRow{
			Department: entry.DepartmentName,
			Unused:     entry.UnusedLicenses,
			CO2SavedKg: entry.CO2SavedKg,
			Trees:      entry.TreeEquivalent,
		})
	}

	reader, err := s.pdf.GenerateSustainabilityReport(ctx, report)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, reader)
	return err
}
