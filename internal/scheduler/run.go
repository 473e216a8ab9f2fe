package scheduler

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	obscontext "github.com/smallbiznis/seatwise/internal/observability/context"
	obslogger "github.com/smallbiznis/seatwise/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/seatwise/internal/observability/metrics"
	"go.uber.org/zap"
)

// jobRun tallies one job invocation across every organization it visits.
type jobRun struct {
	job       string
	id        string
	startedAt time.Time
	processed int
	skipped   int
	errors    int
}

type jobRunKey struct{}

func (r *jobRun) AddProcessed(n int) {
	if r != nil && n > 0 {
		r.processed += n
	}
}

func (r *jobRun) IncSkipped() {
	if r != nil {
		r.skipped++
	}
}

func (r *jobRun) IncError() {
	if r != nil {
		r.errors++
	}
}

func (r *jobRun) summary(now time.Time) []zap.Field {
	return []zap.Field{
		zap.String("job", r.job),
		zap.Int64("duration_ms", now.Sub(r.startedAt).Milliseconds()),
		zap.Int("processed_count", r.processed),
		zap.Int("skipped_count", r.skipped),
		zap.Int("error_count", r.errors),
	}
}

// beginRun attaches a new run to ctx. A nested job reuses the enclosing run and does not own it.
func (s *Scheduler) beginRun(ctx context.Context, job string) (context.Context, *jobRun, bool) {
	if ctx == nil {
		ctx = context.Background()
	}
	if run := runFromContext(ctx); run != nil {
		return ctx, run, false
	}
	run := &jobRun{
		job:       job,
		id:        s.genID.Generate().String(),
		startedAt: s.clock.Now(),
	}
	ctx = context.WithValue(ctx, jobRunKey{}, run)
	ctx = obscontext.WithRun(ctx, job, run.id)
	return s.systemContext(ctx, 0), run, true
}

func runFromContext(ctx context.Context) *jobRun {
	if ctx == nil {
		return nil
	}
	run, _ := ctx.Value(jobRunKey{}).(*jobRun)
	return run
}

// systemContext marks ctx as acting for the scheduler, scoped to orgID when it is set.
func (s *Scheduler) systemContext(ctx context.Context, orgID snowflake.ID) context.Context {
	ctx = obscontext.WithActor(ctx, "system", "scheduler")
	if orgID != 0 {
		ctx = obscontext.WithOrgID(ctx, orgID.String())
	}
	return ctx
}

func (s *Scheduler) logger(ctx context.Context) *zap.Logger {
	return obslogger.WithContext(ctx, s.log)
}

func (s *Scheduler) logRunStart(ctx context.Context, run *jobRun) {
	s.logger(ctx).Info("scheduler.job.start", zap.String("job", run.job))
}

func (s *Scheduler) logRunFinish(ctx context.Context, run *jobRun) {
	fields := run.summary(s.clock.Now())
	if run.errors > 0 {
		s.logger(ctx).Warn("scheduler.job.finish", fields...)
		return
	}
	s.logger(ctx).Info("scheduler.job.finish", fields...)
}

// logJobError counts err against run and logs it with its generator error classification.
func (s *Scheduler) logJobError(ctx context.Context, run *jobRun, msg string, orgID snowflake.ID, err error) {
	if err == nil {
		return
	}
	run.IncError()

	fields := []zap.Field{
		zap.String("error_type", obsmetrics.ClassifyGeneratorErrorType(err)),
		zap.String("reason", obsmetrics.ClassifyGeneratorReason(err)),
		zap.Error(err),
	}
	if run != nil {
		fields = append(fields, zap.String("job", run.job))
	}
	s.logger(s.systemContext(ctx, orgID)).Error(msg, fields...)
}
