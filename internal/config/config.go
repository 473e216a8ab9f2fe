package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName          string
	AppVersion       string
	Environment      string
	HTTPAddr         string
	AuthCookieSecure bool
	AuthCookieName   string
	AuthJWTSecret    string
	AuthTokenTTL     time.Duration
	AuthSessionTTL   time.Duration

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Redis         RedisConfig
	Scheduler     SchedulerConfig
	Insights      InsightsConfig
	ImpactMetrics ImpactMetricsConfig
	Bootstrap     BootstrapConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a redis address is configured.
func (c RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.Addr) != ""
}

type SchedulerConfig struct {
	Enabled  bool
	Interval time.Duration
}

type InsightsConfig struct {
	// SuppressDuplicates skips licenses that already carry an unresolved insight of the same type.
	SuppressDuplicates bool
}

type ImpactMetricsConfig struct {
	Enabled   bool
	Exporter  string
	Endpoint  string
	AuthToken string
}

type BootstrapConfig struct {
	EnsureDemoOrg bool
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()
	return load(OSEnv())
}

func load(env Env) Config {
	environment := env.String("ENVIRONMENT", "development")
	authCookieSecure := environment == "production"
	if !authCookieSecure {
		authCookieSecure = env.Bool("AUTH_COOKIE_SECURE", false)
	}

	cfg := Config{
		AppName:          env.String("APP_SERVICE", "seatwise"),
		AppVersion:       env.String("APP_VERSION", "0.1.0"),
		Environment:      environment,
		HTTPAddr:         env.String("HTTP_ADDR", ":8080"),
		AuthCookieSecure: authCookieSecure,
		AuthCookieName:   env.String("AUTH_COOKIE_NAME", ""),
		AuthJWTSecret:    env.String("AUTH_JWT_SECRET", ""),
		AuthTokenTTL:     env.Duration("AUTH_TOKEN_TTL", time.Hour),
		AuthSessionTTL:   env.Duration("AUTH_SESSION_TTL", 7*24*time.Hour),
		OTLPEndpoint:     env.String("OTLP_ENDPOINT", "localhost:4317"),
		DBType:           env.String("DATABASE_TYPE", "postgres"),
		DBHost:           env.String("DATABASE_HOST", "localhost"),
		DBPort:           env.String("DATABASE_PORT", "5432"),
		DBName:           env.String("DATABASE_NAME", "seatwise"),
		DBUser:           env.String("DATABASE_USER", "postgres"),
		DBPassword:       env.String("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:        env.String("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:    env.Int("DATABASE_MAX_IDLE_CONN", 10),
		DBMaxOpenConn:    env.Int("DATABASE_MAX_OPEN_CONN", 50),
		// seconds
		DBConnMaxLifetime: env.Int("DATABASE_CONN_MAX_LIFETIME", 1800),
		DBConnMaxIdleTime: env.Int("DATABASE_CONN_MAX_IDLE_TIME", 300),
		Redis: RedisConfig{
			Addr:     env.String("REDIS_ADDR", ""),
			Password: env.String("REDIS_PASSWORD", ""),
			DB:       env.Int("REDIS_DB", 0),
		},
		Scheduler: SchedulerConfig{
			Enabled:  env.Bool("SCHEDULER_ENABLED", false),
			Interval: env.Duration("SCHEDULER_INTERVAL", time.Hour),
		},
		Insights: InsightsConfig{
			SuppressDuplicates: env.Bool("INSIGHTS_SUPPRESS_DUPLICATES", false),
		},
		ImpactMetrics: ImpactMetricsConfig{
			Enabled:   env.Bool("IMPACT_METRICS_ENABLED", false),
			Exporter:  strings.ToLower(env.String("IMPACT_METRICS_EXPORTER", "")),
			Endpoint:  env.String("IMPACT_METRICS_ENDPOINT", ""),
			AuthToken: env.String("IMPACT_METRICS_AUTH_TOKEN", ""),
		},
		Bootstrap: BootstrapConfig{
			EnsureDemoOrg: env.Bool("BOOTSTRAP_DEMO", environment != "production"),
		},
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}
