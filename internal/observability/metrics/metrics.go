package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes domain instruments for the derived-metrics generators.
type Metrics struct {
	insightsCreated    metric.Int64Counter
	insightsSkipped    metric.Int64Counter
	scoresCalculated   metric.Int64Counter
	snapshotsUpserted  metric.Int64Counter
	generatorFailures  metric.Int64Counter
	runLockContentions metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "seatwise"
	}
	meter := provider.Meter(name)

	insightsCreated, err := meter.Int64Counter("seatwise_insights_created_total")
	if err != nil {
		return nil, err
	}
	insightsSkipped, err := meter.Int64Counter("seatwise_insights_skipped_total")
	if err != nil {
		return nil, err
	}
	scoresCalculated, err := meter.Int64Counter("seatwise_scores_calculated_total")
	if err != nil {
		return nil, err
	}
	snapshotsUpserted, err := meter.Int64Counter("seatwise_impact_snapshots_total")
	if err != nil {
		return nil, err
	}
	generatorFailures, err := meter.Int64Counter("seatwise_generator_failures_total")
	if err != nil {
		return nil, err
	}
	runLockContentions, err := meter.Int64Counter("seatwise_run_lock_contention_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		insightsCreated:    insightsCreated,
		insightsSkipped:    insightsSkipped,
		scoresCalculated:   scoresCalculated,
		snapshotsUpserted:  snapshotsUpserted,
		generatorFailures:  generatorFailures,
		runLockContentions: runLockContentions,
	}, nil
}

// RecordInsights counts insights created and skipped by one generator run.
func (m *Metrics) RecordInsights(ctx context.Context, insightType string, created, skipped int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(FilterAttributes(attribute.String("insight_type", strings.TrimSpace(insightType)))...)
	if created > 0 {
		m.insightsCreated.Add(ctx, int64(created), attrs)
	}
	if skipped > 0 {
		m.insightsSkipped.Add(ctx, int64(skipped), attrs)
	}
}

// RecordScores counts department scores written for a period type.
func (m *Metrics) RecordScores(ctx context.Context, periodType string, scored int) {
	if m == nil || scored <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("period_type", strings.TrimSpace(periodType)))
	m.scoresCalculated.Add(ctx, int64(scored), metric.WithAttributes(attrs...))
}

// RecordSnapshots counts environmental snapshots written.
func (m *Metrics) RecordSnapshots(ctx context.Context, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.snapshotsUpserted.Add(ctx, int64(count))
}

// RecordFailures counts per-item failures reported by a generator.
func (m *Metrics) RecordFailures(ctx context.Context, generator string, count int) {
	if m == nil || count <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("generator", strings.TrimSpace(generator)))
	m.generatorFailures.Add(ctx, int64(count), metric.WithAttributes(attrs...))
}

// RecordRunLockContention counts generator runs rejected because another run held the lock.
func (m *Metrics) RecordRunLockContention(ctx context.Context, generator string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("generator", strings.TrimSpace(generator)))
	m.runLockContentions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"generator":    {},
	"insight_type": {},
	"period_type":  {},
	"route":        {},
	"method":       {},
	"status_code":  {},
	"reason":       {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
