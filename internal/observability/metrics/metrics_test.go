package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("generator", "insights"),
		attribute.String("org_id", "123"),
		attribute.String("period_type", "monthly"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Key == "org_id" {
			t.Fatalf("expected org_id to be dropped")
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordInsights(context.Background(), "unused_license", 1, 1)
	m.RecordScores(context.Background(), "monthly", 3)
	m.RecordRunLockContention(context.Background(), "scores")
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{ServiceName: "seatwise"}, noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.RecordInsights(context.Background(), "unused_license", 2, 0)
	m.RecordSnapshots(context.Background(), 4)
	m.RecordFailures(context.Background(), "impact", 1)
}
