package pdf

import (
	"context"
	"io"
)

type Provider interface {
	GenerateSustainabilityReport(ctx context.Context, report SustainabilityReport) (io.Reader, error)
}

type SustainabilityReport struct {
	Organization string
	Period       string
	GeneratedAt  string
	Summary      []Metric
	Trend        []TrendRow
	Rankings     []RankingRow
}

type Metric struct {
	Label string
	Value string
}

type TrendRow struct {
	Period        string
	Unused        int
	CO2SavedKg    float64
	CumulativeCO2 float64
}

type RankingRow struct {
	Department string
	Unused     int
	CO2SavedKg float64
	Trees      float64
}
