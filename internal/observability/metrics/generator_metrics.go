package metrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/seatwise/internal/authorization"
	"github.com/smallbiznis/seatwise/internal/runlock"
	"gorm.io/gorm"
)

const (
	GeneratorErrorTypeDeadlineExceeded = "deadline_exceeded"
	GeneratorErrorTypeAuthorization    = "authorization"
	GeneratorErrorTypeBusinessRule     = "business_rule"
	GeneratorErrorTypeDB               = "db"
	GeneratorErrorTypeUnknown          = "unknown"
)

const (
	GeneratorReasonDeadlineExceeded     = "deadline_exceeded"
	GeneratorReasonDBLockTimeout        = "db_lock_timeout"
	GeneratorReasonSerializationFailure = "serialization_failure"
	GeneratorReasonUniqueViolation      = "unique_violation"
	GeneratorReasonForbidden            = "forbidden"
	GeneratorReasonRunInProgress        = "run_in_progress"
	GeneratorReasonUnknown              = "unknown"
)

// GeneratorMetrics tracks health of the derived-metrics jobs, whether triggered by HTTP or the scheduler.
type GeneratorMetrics struct {
	jobRuns        *prometheus.CounterVec
	jobDuration    *prometheus.HistogramVec
	jobTimeouts    *prometheus.CounterVec
	jobErrors      *prometheus.CounterVec
	itemsProcessed *prometheus.CounterVec
	itemsFailed    *prometheus.CounterVec
	runLoopLag     prometheus.Observer
}

var (
	generatorMetricsOnce sync.Once
	generatorMetrics     *GeneratorMetrics
)

// Generators returns the singleton generator metrics registry.
func Generators() *GeneratorMetrics {
	return GeneratorsWithConfig(Config{})
}

// GeneratorsWithConfig returns the singleton generator metrics registry using config labels.
func GeneratorsWithConfig(cfg Config) *GeneratorMetrics {
	generatorMetricsOnce.Do(func() {
		generatorMetrics = newGeneratorMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return generatorMetrics
}

// ResetGeneratorMetricsForTest resets the singleton for tests.
func ResetGeneratorMetricsForTest() {
	generatorMetricsOnce = sync.Once{}
	generatorMetrics = nil
}

func newGeneratorMetrics(registerer prometheus.Registerer, cfg Config) *GeneratorMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := constLabelsFor(cfg)

	jobRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "seatwise_generator_runs_total",
		Help:        "Generator runs by job.",
		ConstLabels: constLabels,
	}, []string{"job"})
	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "seatwise_generator_duration_seconds",
		Help:        "Generator run latency by job.",
		Buckets:     []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		ConstLabels: constLabels,
	}, []string{"job"})
	jobTimeouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "seatwise_generator_timeouts_total",
		Help:        "Generator runs that hit their deadline.",
		ConstLabels: constLabels,
	}, []string{"job"})
	jobErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "seatwise_generator_errors_total",
		Help:        "Generator run errors by low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"job", "reason"})
	itemsProcessed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "seatwise_generator_items_processed_total",
		Help:        "Items written by generators, by resource.",
		ConstLabels: constLabels,
	}, []string{"job", "resource"})
	itemsFailed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "seatwise_generator_items_failed_total",
		Help:        "Per-item generator failures, by resource.",
		ConstLabels: constLabels,
	}, []string{"job", "resource"})
	runLoopLag := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "seatwise_scheduler_runloop_lag_seconds",
		Help:        "Scheduler run loop lag beyond the configured interval.",
		Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		ConstLabels: constLabels,
	})

	registerer.MustRegister(
		jobRuns,
		jobDuration,
		jobTimeouts,
		jobErrors,
		itemsProcessed,
		itemsFailed,
		runLoopLag,
	)

	return &GeneratorMetrics{
		jobRuns:        jobRuns,
		jobDuration:    jobDuration,
		jobTimeouts:    jobTimeouts,
		jobErrors:      jobErrors,
		itemsProcessed: itemsProcessed,
		itemsFailed:    itemsFailed,
		runLoopLag:     runLoopLag,
	}
}

func (m *GeneratorMetrics) IncJobRun(job string) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job).Inc()
}

func (m *GeneratorMetrics) ObserveJobDuration(job string, duration time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

func (m *GeneratorMetrics) IncJobTimeout(job string) {
	if m == nil {
		return
	}
	m.jobTimeouts.WithLabelValues(job).Inc()
}

// IncJobError increments the job error counter with classification.
func (m *GeneratorMetrics) IncJobError(job string, err error) {
	if m == nil || err == nil {
		return
	}
	m.jobErrors.WithLabelValues(job, ClassifyGeneratorReason(err)).Inc()
}

func (m *GeneratorMetrics) AddItemsProcessed(job, resource string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.itemsProcessed.WithLabelValues(job, resource).Add(float64(count))
}

func (m *GeneratorMetrics) AddItemsFailed(job, resource string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.itemsFailed.WithLabelValues(job, resource).Add(float64(count))
}

// ObserveRunLoopLag records lag between the scheduled tick and actual run start.
func (m *GeneratorMetrics) ObserveRunLoopLag(duration time.Duration) {
	if m == nil {
		return
	}
	if duration < 0 {
		duration = 0
	}
	m.runLoopLag.Observe(duration.Seconds())
}

// ClassifyGeneratorErrorType returns a low-cardinality error type for logging.
func ClassifyGeneratorErrorType(err error) string {
	switch {
	case err == nil:
		return GeneratorErrorTypeUnknown
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return GeneratorErrorTypeDeadlineExceeded
	case isAuthorizationError(err):
		return GeneratorErrorTypeAuthorization
	case isDBError(err):
		return GeneratorErrorTypeDB
	default:
		return GeneratorErrorTypeBusinessRule
	}
}

// ClassifyGeneratorReason maps generator errors to low-cardinality reasons.
func ClassifyGeneratorReason(err error) string {
	switch {
	case err == nil:
		return GeneratorReasonUnknown
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return GeneratorReasonDeadlineExceeded
	case errors.Is(err, runlock.ErrRunInProgress):
		return GeneratorReasonRunInProgress
	case isAuthorizationError(err):
		return GeneratorReasonForbidden
	case hasPGCode(err, "55P03"):
		return GeneratorReasonDBLockTimeout
	case hasPGCode(err, "40001"):
		return GeneratorReasonSerializationFailure
	case errors.Is(err, gorm.ErrDuplicatedKey) || hasPGCode(err, "23505"):
		return GeneratorReasonUniqueViolation
	default:
		return GeneratorReasonUnknown
	}
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}

func isAuthorizationError(err error) bool {
	return errors.Is(err, authorization.ErrForbidden) ||
		errors.Is(err, authorization.ErrInvalidActor) ||
		errors.Is(err, authorization.ErrInvalidOrganization) ||
		errors.Is(err, authorization.ErrInvalidObject) ||
		errors.Is(err, authorization.ErrInvalidAction)
}

func isDBError(err error) bool {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false
	}
	if errors.Is(err, gorm.ErrInvalidDB) ||
		errors.Is(err, gorm.ErrInvalidTransaction) ||
		errors.Is(err, gorm.ErrInvalidField) ||
		errors.Is(err, gorm.ErrInvalidData) ||
		errors.Is(err, gorm.ErrMissingWhereClause) ||
		errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr)
}
