package pdf

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateSustainabilityReport(t *testing.T) {
	reader, err := New().GenerateSustainabilityReport(context.Background(), SustainabilityReport{
		Organization: "Acme",
		Period:       "2025-06",
		GeneratedAt:  "2025-06-15",
		Summary:      []Metric{{Label: "CO2 saved", Value: "3.00 kg"}},
		Trend:        []TrendRow{{Period: "2025-06", Unused: 20, CO2SavedKg: 3, CumulativeCO2: 3}},
		Rankings:     []RankingRow{{Department: "Engineering", Unused: 20, CO2SavedKg: 3, Trees: 1.8}},
	})
	require.NoError(t, err)

	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

func TestGenerateSustainabilityReportCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().GenerateSustainabilityReport(ctx, SustainabilityReport{})
	require.ErrorIs(t, err, context.Canceled)
}
