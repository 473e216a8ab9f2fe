package observability

import (
	"strings"
	"time"

	"github.com/smallbiznis/seatwise/internal/config"
)

// Config holds observability configuration derived from environment variables.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel           string
	LogFormat          string
	LogSamplingInitial int
	LogSamplingAfter   int

	// DBLogLevel is one of silent, error, warn or info.
	DBLogLevel  string
	DBSlowQuery time.Duration

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

// LoadConfig reads LOG_*, DB_LOG_LEVEL, DB_SLOW_QUERY_THRESHOLD and OTEL_* settings.
func LoadConfig(cfg config.Config) Config {
	return loadConfig(cfg, config.OSEnv())
}

func loadConfig(cfg config.Config, env config.Env) Config {
	logLevel := strings.ToLower(env.String("LOG_LEVEL", "info"))

	// Query logging follows debug unless DB_LOG_LEVEL pins it.
	dbLogLevel := strings.ToLower(env.String("DB_LOG_LEVEL", "warn"))
	if logLevel == "debug" && !env.Set("DB_LOG_LEVEL") {
		dbLogLevel = "info"
	}

	protocol := env.String("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	protocol = strings.ToLower(env.String("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", protocol))

	ratio := env.Float("OTEL_SAMPLING_RATIO", 0.1)
	if ratio < 0 || ratio > 1 {
		ratio = 0.1
	}

	// Exporters stay off outside production unless OTEL_ENABLED is set.
	otelEnabled := env.Bool("OTEL_ENABLED", cfg.IsProduction())

	return Config{
		ServiceName:          valueOr(cfg.AppName, "seatwise"),
		Environment:          strings.TrimSpace(cfg.Environment),
		Version:              strings.TrimSpace(cfg.AppVersion),
		LogLevel:             logLevel,
		LogFormat:            strings.ToLower(env.String("LOG_FORMAT", "json")),
		LogSamplingInitial:   positive(env.Int("LOG_SAMPLING_INITIAL", 100), 100),
		LogSamplingAfter:     positive(env.Int("LOG_SAMPLING_THEREAFTER", 100), 100),
		DBLogLevel:           dbLogLevel,
		DBSlowQuery:          env.Duration("DB_SLOW_QUERY_THRESHOLD", 200*time.Millisecond),
		OtelEnabled:          otelEnabled,
		OtelExporterEndpoint: env.String("OTEL_EXPORTER_OTLP_ENDPOINT", strings.TrimSpace(cfg.OTLPEndpoint)),
		OtelExporterProtocol: protocol,
		OtelSamplingRatio:    ratio,
	}
}

func (c Config) Debug() bool {
	level := strings.ToLower(strings.TrimSpace(c.LogLevel))
	if level == "debug" {
		return true
	}
	return isDevEnv(c.Environment)
}

func isDevEnv(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	switch env {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func valueOr(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

func positive(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}
