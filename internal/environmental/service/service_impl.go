package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/seatwise/internal/clock"
	"github.com/smallbiznis/seatwise/internal/config"
	departmentdomain "github.com/smallbiznis/seatwise/internal/department/domain"
	"github.com/smallbiznis/seatwise/internal/environmental/domain"
	"github.com/smallbiznis/seatwise/internal/impactmetrics"
	insightdomain "github.com/smallbiznis/seatwise/internal/insight/domain"
	licensedomain "github.com/smallbiznis/seatwise/internal/license/domain"
	"github.com/smallbiznis/seatwise/internal/observability/metrics"
	organizationdomain "github.com/smallbiznis/seatwise/internal/organization/domain"
	"github.com/smallbiznis/seatwise/internal/orgcontext"
	"github.com/smallbiznis/seatwise/internal/period"
	"github.com/smallbiznis/seatwise/internal/providers/pdf"
	"github.com/smallbiznis/seatwise/internal/runlock"
	"github.com/smallbiznis/seatwise/pkg/db/option"
	"github.com/smallbiznis/seatwise/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	generatorName      = "impact"
	defaultTrendMonths = 12
	maxTrendMonths     = 120
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Factors       *config.ImpactFactorsHolder
	Repo          domain.Repository
	Licenses      licensedomain.Repository
	Insights      insightdomain.Repository
	Departments   repository.Repository[departmentdomain.Department]
	Organizations organizationdomain.Repository
	PDF           pdf.Provider
	Locker        runlock.Locker
	Metrics       *metrics.Metrics `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	factors       *config.ImpactFactorsHolder
	repo          domain.Repository
	licenses      licensedomain.Repository
	insights      insightdomain.Repository
	departments   repository.Repository[departmentdomain.Department]
	organizations organizationdomain.Repository
	pdf           pdf.Provider
	locker        runlock.Locker
	metrics       *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("environmental.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		factors:       p.Factors,
		repo:          p.Repo,
		licenses:      p.Licenses,
		insights:      p.Insights,
		departments:   p.Departments,
		organizations: p.Organizations,
		pdf:           p.PDF,
		locker:        p.Locker,
		metrics:       p.Metrics,
	}
}

// Calculate upserts the organization snapshot and one snapshot per department holding licenses.
func (s *Service) Calculate(ctx context.Context, req domain.CalculateRequest) (*domain.CalculationReport, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	periodValue, err := period.Resolve(req.Period, now, period.Monthly)
	if err != nil {
		return nil, err
	}
	start, end, err := period.Bounds(periodValue)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, runlock.Key(generatorName, int64(orgID)))
	if err != nil {
		if errors.Is(err, runlock.ErrRunInProgress) {
			s.metrics.RecordRunLockContention(ctx, generatorName)
		}
		return nil, err
	}
	defer release()

	factors := s.factors.Get()
	licenses, err := s.licenses.ListActive(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	totals := domain.CountUnusedSeats(licenses)

	previous, err := s.repo.SumCO2Before(ctx, s.db, orgID, periodValue)
	if err != nil {
		return nil, err
	}
	actions, err := s.insights.CountResolvedCreatedBetween(ctx, s.db, orgID, nil, start, end)
	if err != nil {
		return nil, err
	}

	estimate := domain.EstimateUnusedSeats(totals.Total, factors)
	orgSnapshot := s.newSnapshot(orgID, domain.OrganizationScope, periodValue, estimate, int(actions))
	orgSnapshot.CumulativeCO2 = previous + estimate.CO2SavedKg
	if err := s.repo.UpsertSnapshot(ctx, s.db, orgSnapshot); err != nil {
		return nil, err
	}

	report := &domain.CalculationReport{
		Period:              periodValue,
		TotalUnusedLicenses: totals.Total,
		CO2SavedKg:          estimate.CO2SavedKg,
		Failures:            []domain.CalculationFailure{},
	}
	var errs []error
	for _, departmentID := range totals.Departments {
		if err := s.upsertDepartment(ctx, orgID, departmentID, periodValue, totals.ByDepartment[departmentID], factors, start, end); err != nil {
			errs = append(errs, fmt.Errorf("department %s: %w", departmentID, err))
			report.Failures = append(report.Failures, domain.CalculationFailure{
				DepartmentID: departmentID.String(),
				Error:        err.Error(),
			})
			continue
		}
		report.DepartmentsProcessed++
	}

	s.metrics.RecordSnapshots(ctx, 1+report.DepartmentsProcessed)
	s.metrics.RecordFailures(ctx, generatorName, len(report.Failures))
	impactmetrics.RecordImpact(orgID.String(), estimate.CO2SavedKg, totals.Total)

	fields := []zap.Field{
		zap.String("org_id", orgID.String()),
		zap.String("period", periodValue),
		zap.Int("unused_seats", totals.Total),
		zap.Int("departments", report.DepartmentsProcessed),
		zap.Int("failures", len(report.Failures)),
	}
	if joined := errors.Join(errs...); joined != nil {
		s.log.Warn("impact calculation finished with failures", append(fields, zap.Error(joined))...)
	} else {
		s.log.Info("impact calculation finished", fields...)
	}
	return report, nil
}

// Department snapshots carry their own CO2 as the cumulative value.
func (s *Service) upsertDepartment(ctx context.Context, orgID, departmentID snowflake.ID, periodValue string, unused int, factors config.ImpactFactors, start, end time.Time) error {
	actions, err := s.insights.CountResolvedCreatedBetween(ctx, s.db, orgID, &departmentID, start, end)
	if err != nil {
		return err
	}
	estimate := domain.EstimateUnusedSeats(unused, factors)
	snapshot := s.newSnapshot(orgID, departmentID, periodValue, estimate, int(actions))
	snapshot.CumulativeCO2 = estimate.CO2SavedKg
	return s.repo.UpsertSnapshot(ctx, s.db, snapshot)
}

func (s *Service) newSnapshot(orgID, departmentID snowflake.ID, periodValue string, estimate domain.Estimate, actions int) *domain.Snapshot {
	now := s.clock.Now()
	return &domain.Snapshot{
		ID:                  s.genID.Generate(),
		OrgID:               orgID,
		DepartmentID:        departmentID,
		Period:              periodValue,
		UnusedLicenses:      estimate.UnusedSeats,
		CO2SavedKg:          estimate.CO2SavedKg,
		EnergySavedKWh:      estimate.EnergySavedKWh,
		WaterSavedLiters:    estimate.WaterSavedLiters,
		TreeEquivalent:      estimate.TreeEquivalent,
		CarMilesEquivalent:  estimate.CarMilesEquivalent,
		OptimizationActions: actions,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// Overview returns a zeroed response when the period has not been calculated.
func (s *Service) Overview(ctx context.Context, periodValue string) (*domain.OverviewResponse, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	periodValue, err = period.Resolve(periodValue, s.clock.Now(), period.Monthly)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.repo.FindOrganizationSnapshot(ctx, s.db, orgID, periodValue)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return &domain.OverviewResponse{Period: periodValue}, nil
	}
	resp := domain.ToOverview(snapshot)
	return &resp, nil
}

// Trend returns the latest organization snapshots oldest first.
func (s *Service) Trend(ctx context.Context, months int) ([]domain.OverviewResponse, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if months == 0 {
		months = defaultTrendMonths
	}
	if months < 0 || months > maxTrendMonths {
		return nil, domain.ErrInvalidMonths
	}

	snapshots, err := s.repo.ListOrganizationSnapshots(ctx, s.db, orgID, months)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.OverviewResponse, len(snapshots))
	for i, snapshot := range snapshots {
		resp[len(snapshots)-1-i] = domain.ToOverview(snapshot)
	}
	return resp, nil
}

func (s *Service) DepartmentRankings(ctx context.Context, periodValue string) ([]domain.RankingEntry, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	periodValue, err = period.Resolve(periodValue, s.clock.Now(), period.Monthly)
	if err != nil {
		return nil, err
	}

	snapshots, err := s.repo.ListDepartmentSnapshots(ctx, s.db, orgID, periodValue)
	if err != nil {
		return nil, err
	}
	departments, err := s.departments.Find(ctx, &departmentdomain.Department{OrgID: orgID}, option.WithSortBy("created_at ASC, id ASC"))
	if err != nil {
		return nil, err
	}
	names := make(map[snowflake.ID]string, len(departments))
	for _, department := range departments {
		names[department.ID] = department.Name
	}

	resp := make([]domain.RankingEntry, 0, len(snapshots))
	for _, snapshot := range snapshots {
		name, ok := names[snapshot.DepartmentID]
		if !ok {
			name = "Unknown"
		}
		resp = append(resp, domain.RankingEntry{
			OverviewResponse: domain.ToOverview(snapshot),
			DepartmentID:     snapshot.DepartmentID.String(),
			DepartmentName:   name,
		})
	}
	return resp, nil
}

func orgIDFromContext(ctx context.Context) (snowflake.ID, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, domain.ErrInvalidOrganization
	}
	return orgID, nil
}
