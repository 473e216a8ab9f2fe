package domain

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/seatwise/internal/config"
	licensedomain "github.com/smallbiznis/seatwise/internal/license/domain"
)

// Estimate holds the equivalents derived from a count of idle seats.
type Estimate struct {
	UnusedSeats        int
	CO2SavedKg         float64
	EnergySavedKWh     float64
	WaterSavedLiters   float64
	TreeEquivalent     float64
	CarMilesEquivalent float64
}

func EstimateUnusedSeats(unused int, f config.ImpactFactors) Estimate {
	co2 := float64(unused) * f.CO2KgPerSeatMonth
	return Estimate{
		UnusedSeats:        unused,
		CO2SavedKg:         co2,
		EnergySavedKWh:     float64(unused) * f.EnergyKWhPerSeatMonth,
		WaterSavedLiters:   float64(unused) * f.WaterLitersPerSeatMonth,
		TreeEquivalent:     co2 * 12 / f.TreeKgCO2PerYear,
		CarMilesEquivalent: co2 / f.CarKgCO2PerMile,
	}
}

// SeatTotals counts idle seats for the organization and per department.
type SeatTotals struct {
	Total        int
	ByDepartment map[snowflake.ID]int
	// Departments lists department ids in first-seen order.
	Departments []snowflake.ID
}

// CountUnusedSeats totals idle seats; licenses without a department only count toward Total.
func CountUnusedSeats(licenses []*licensedomain.License) SeatTotals {
	totals := SeatTotals{ByDepartment: make(map[snowflake.ID]int)}
	for _, license := range licenses {
		unused := license.UnusedSeats()
		totals.Total += unused
		if license.DepartmentID == nil {
			continue
		}
		id := *license.DepartmentID
		if _, ok := totals.ByDepartment[id]; !ok {
			totals.Departments = append(totals.Departments, id)
		}
		totals.ByDepartment[id] += unused
	}
	return totals
}
