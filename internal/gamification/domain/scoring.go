package domain

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
	licensedomain "github.com/smallbiznis/seatwise/internal/license/domain"
)

// DepartmentMetrics aggregates a department's active licenses.
type DepartmentMetrics struct {
	TotalLicenses    int
	ActiveLicenses   int
	TotalSeats       int
	UsedSeats        int
	TotalSpend       decimal.Decimal
	PotentialSavings decimal.Decimal
	ActualSavings    decimal.Decimal
}

func AggregateLicenses(licenses []*licensedomain.License) DepartmentMetrics {
	m := DepartmentMetrics{
		TotalSpend:       decimal.Zero,
		PotentialSavings: decimal.Zero,
		ActualSavings:    decimal.Zero,
	}
	for _, license := range licenses {
		m.TotalLicenses++
		if license.UsedSeats > 0 {
			m.ActiveLicenses++
		}
		m.TotalSeats += license.TotalSeats
		m.UsedSeats += license.UsedSeats
		m.TotalSpend = m.TotalSpend.Add(decimal.NewFromFloat(license.TotalCost))
		m.PotentialSavings = m.PotentialSavings.Add(
			decimal.NewFromInt(int64(license.UnusedSeats())).
				Mul(decimal.NewFromFloat(license.CostPerSeat)).
				Mul(decimal.NewFromInt(int64(license.AnnualizationFactor()))),
		)
	}
	return m
}

// UtilizationRate is used/total*100, or 0 without seats.
func UtilizationRate(used, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(used) / float64(total) * 100
}

// BudgetAdherence penalizes overspend relative to budget; departments without a budget score 100.
func BudgetAdherence(spend, budget float64) float64 {
	if budget <= 0 {
		return 100
	}
	return math.Max(0, 100-(spend-budget)/budget*100)
}

func EfficiencyScore(utilization, adherence float64) int {
	return int(math.Round(0.6*utilization + 0.4*adherence))
}

// AssignRanks sorts by efficiency descending, keeping input order on ties, and sets rank = position + 1.
func AssignRanks(scores []*Score) {
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].EfficiencyScore > scores[j].EfficiencyScore
	})
	for i, score := range scores {
		score.Rank = i + 1
	}
}

// Medal is gold, silver or bronze for the top three ranks.
func Medal(rank int) string {
	switch rank {
	case 1:
		return "gold"
	case 2:
		return "silver"
	case 3:
		return "bronze"
	}
	return ""
}
