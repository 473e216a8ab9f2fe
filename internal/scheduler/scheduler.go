package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/seatwise/internal/auth/domain"
	"github.com/smallbiznis/seatwise/internal/authorization"
	"github.com/smallbiznis/seatwise/internal/clock"
	environmentaldomain "github.com/smallbiznis/seatwise/internal/environmental/domain"
	gamificationdomain "github.com/smallbiznis/seatwise/internal/gamification/domain"
	insightdomain "github.com/smallbiznis/seatwise/internal/insight/domain"
	obsmetrics "github.com/smallbiznis/seatwise/internal/observability/metrics"
	organizationdomain "github.com/smallbiznis/seatwise/internal/organization/domain"
	"github.com/smallbiznis/seatwise/internal/orgcontext"
	"github.com/smallbiznis/seatwise/internal/runlock"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	JobScores   = "scores"
	JobImpact   = "impact"
	JobInsights = "insights"
	JobSessions = "sessions"
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Config        Config `optional:"true"`
	Organizations organizationdomain.Service
	Insights      insightdomain.Service
	Scores        gamificationdomain.Service
	Impact        environmentaldomain.Service
	AuthzSvc      authorization.Service
	Sessions      authdomain.Service `optional:"true"`
}

type Scheduler struct {
	log           *zap.Logger
	cfg           Config
	genID         *snowflake.Node
	clock         clock.Clock
	organizations organizationdomain.Service
	insights      insightdomain.Service
	scores        gamificationdomain.Service
	impact        environmentaldomain.Service
	authzSvc      authorization.Service
	sessions      authdomain.Service
}

// orgJob runs one generator for one organization and returns the number of rows it wrote.
type orgJob struct {
	name     string
	resource string
	object   string
	action   string
	run      func(ctx context.Context) (int, int, error)
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil || p.Organizations == nil || p.Insights == nil || p.Scores == nil || p.Impact == nil || p.AuthzSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:           p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:           p.Config.withDefaults(),
		genID:         p.GenID,
		clock:         p.Clock,
		organizations: p.Organizations,
		insights:      p.Insights,
		scores:        p.Scores,
		impact:        p.Impact,
		authzSvc:      p.AuthzSvc,
		sessions:      p.Sessions,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run, owner := s.beginRun(ctx, name)
	if owner {
		s.logRunStart(ctx, run)
	}
	log := s.logger(ctx).With(zap.String("job", name))
	genMetrics := obsmetrics.Generators()
	genMetrics.IncJobRun(name)

	err := fn(ctx)
	genMetrics.ObserveJobDuration(name, time.Since(start))
	if owner {
		if err != nil && run.errors == 0 {
			run.IncError()
		}
		s.logRunFinish(ctx, run)
	}
	if err == nil {
		return nil
	}

	// Deadlines are soft: the next tick resumes the work.
	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		genMetrics.IncJobTimeout(name)
	}
	genMetrics.IncJobError(name, err)
	if isTimeout {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error
	for _, job := range s.jobs() {
		if !s.isJobEnabled(job.name) {
			continue
		}
		err = errors.Join(err, s.runJob(parent, job.name, s.cfg.JobTimeout, func(ctx context.Context) error {
			return s.forEachOrganization(ctx, job)
		}))
	}
	if s.sessions != nil && s.isJobEnabled(JobSessions) {
		err = errors.Join(err, s.runJob(parent, JobSessions, s.cfg.JobTimeout, s.pruneSessions))
	}
	return err
}

// pruneSessions is global rather than per organization; sessions belong to users.
func (s *Scheduler) pruneSessions(ctx context.Context) error {
	removed, err := s.sessions.PruneSessions(ctx)
	if err != nil {
		s.logJobError(ctx, runFromContext(ctx), "scheduler.sessions.prune.failed", 0, err)
		return err
	}
	runFromContext(ctx).AddProcessed(int(removed))
	obsmetrics.Generators().AddItemsProcessed(JobSessions, "session", int(removed))
	return nil
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(s.cfg.RunInterval)
	genMetrics := obsmetrics.Generators()

	for {
		runLag := s.clock.Now().Sub(nextRun)
		if runLag > 0 {
			genMetrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) jobs() []orgJob {
	jobs := []orgJob{
		{
			name:     JobScores,
			resource: "score",
			object:   authorization.ObjectScore,
			action:   authorization.ActionScoreCalculate,
			run: func(ctx context.Context) (int, int, error) {
				report, err := s.scores.CalculateScores(ctx, gamificationdomain.CalculateRequest{})
				if err != nil {
					return 0, 0, err
				}
				return report.Scored, len(report.Failures), nil
			},
		},
		{
			name:     JobImpact,
			resource: "snapshot",
			object:   authorization.ObjectImpact,
			action:   authorization.ActionImpactCalculate,
			run: func(ctx context.Context) (int, int, error) {
				report, err := s.impact.Calculate(ctx, environmentaldomain.CalculateRequest{})
				if err != nil {
					return 0, 0, err
				}
				return 1 + report.DepartmentsProcessed, len(report.Failures), nil
			},
		},
	}
	if s.cfg.RunInsights {
		jobs = append(jobs, orgJob{
			name:     JobInsights,
			resource: "insight",
			object:   authorization.ObjectInsight,
			action:   authorization.ActionInsightGenerate,
			run: func(ctx context.Context) (int, int, error) {
				report, err := s.insights.GenerateUnusedLicenseInsights(ctx, insightdomain.GenerateRequest{})
				if err != nil {
					return 0, 0, err
				}
				return report.Created, len(report.Failures), nil
			},
		})
	}
	return jobs
}

// forEachOrganization keeps going past per-organization failures.
func (s *Scheduler) forEachOrganization(ctx context.Context, job orgJob) error {
	run := runFromContext(ctx)
	orgIDs, err := s.organizations.ListOrganizationIDs(ctx)
	if err != nil {
		s.logJobError(ctx, run, "scheduler.organizations.list.failed", 0, err)
		return err
	}

	genMetrics := obsmetrics.Generators()
	var jobErr error
	for _, orgID := range orgIDs {
		if ctx.Err() != nil {
			return errors.Join(jobErr, ctx.Err())
		}
		if err := s.authorizeSystem(ctx, orgID, job.object, job.action); err != nil {
			jobErr = errors.Join(jobErr, err)
			s.logJobError(ctx, run, "scheduler.authorize.failed", orgID, err)
			continue
		}

		orgCtx := orgcontext.WithOrgID(s.systemContext(ctx, orgID), int64(orgID))
		written, failed, err := job.run(orgCtx)
		if errors.Is(err, runlock.ErrRunInProgress) {
			run.IncSkipped()
			s.logger(orgCtx).Debug("scheduler.org.skipped", zap.String("job", job.name))
			continue
		}
		if err != nil {
			jobErr = errors.Join(jobErr, err)
			s.logJobError(ctx, run, "scheduler.org.process.failed", orgID, err)
			continue
		}
		run.AddProcessed(written)
		genMetrics.AddItemsProcessed(job.name, job.resource, written)
		genMetrics.AddItemsFailed(job.name, job.resource, failed)
	}
	return jobErr
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

func (s *Scheduler) authorizeSystem(ctx context.Context, orgID snowflake.ID, object string, action string) error {
	if s.authzSvc == nil {
		return authorization.ErrForbidden
	}
	return s.authzSvc.Authorize(ctx, authorization.ActorSystem, orgID.String(), object, action)
}
