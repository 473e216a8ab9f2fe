package scheduler

import (
	"time"

	"github.com/smallbiznis/seatwise/internal/config"
)

// Config controls scheduler intervals and which generators run.
type Config struct {
	RunInterval time.Duration
	JobTimeout  time.Duration
	// EnabledJobs limits the run to the named jobs; empty enables all.
	EnabledJobs []string
	// RunInsights enables insight generation, which only converges when duplicates are suppressed.
	RunInsights bool
}

func DefaultConfig() Config {
	return Config{
		RunInterval: time.Hour,
		JobTimeout:  5 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		RunInterval: cfg.Scheduler.Interval,
		RunInsights: cfg.Insights.SuppressDuplicates,
	}
}
