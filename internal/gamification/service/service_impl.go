package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/seatwise/internal/clock"
	departmentdomain "github.com/smallbiznis/seatwise/internal/department/domain"
	"github.com/smallbiznis/seatwise/internal/gamification/domain"
	"github.com/smallbiznis/seatwise/internal/impactmetrics"
	licensedomain "github.com/smallbiznis/seatwise/internal/license/domain"
	"github.com/smallbiznis/seatwise/internal/observability/metrics"
	"github.com/smallbiznis/seatwise/internal/orgcontext"
	"github.com/smallbiznis/seatwise/internal/period"
	"github.com/smallbiznis/seatwise/internal/runlock"
	"github.com/smallbiznis/seatwise/pkg/db/option"
	"github.com/smallbiznis/seatwise/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	generatorName      = "scores"
	defaultHistorySize = 12
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	Departments repository.Repository[departmentdomain.Department]
	Licenses    licensedomain.Repository
	Locker      runlock.Locker
	Metrics     *metrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	departments repository.Repository[departmentdomain.Department]
	licenses    licensedomain.Repository
	locker      runlock.Locker
	metrics     *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("gamification.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		departments: p.Departments,
		licenses:    p.Licenses,
		locker:      p.Locker,
		metrics:     p.Metrics,
	}
}

// CalculateScores scores every department for the period and upserts one row per department.
func (s *Service) CalculateScores(ctx context.Context, req domain.CalculateRequest) (*domain.ScoringReport, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	periodType, err := period.ParseType(req.PeriodType)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	periodValue, err := period.Resolve(req.Period, now, periodType)
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

	departments, err := s.listDepartments(ctx, orgID)
	if err != nil {
		return nil, err
	}
	licenses, err := s.licenses.ListActive(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	byDepartment := make(map[snowflake.ID][]*licensedomain.License, len(departments))
	for _, license := range licenses {
		if license.DepartmentID != nil {
			byDepartment[*license.DepartmentID] = append(byDepartment[*license.DepartmentID], license)
		}
	}

	report := &domain.ScoringReport{
		Period:     periodValue,
		PeriodType: string(periodType),
		Failures:   []domain.ScoringFailure{},
	}
	var errs []error
	fail := func(departmentID snowflake.ID, err error) {
		errs = append(errs, fmt.Errorf("department %s: %w", departmentID, err))
		report.Failures = append(report.Failures, domain.ScoringFailure{
			DepartmentID: departmentID.String(),
			Error:        err.Error(),
		})
	}

	scores := make([]*domain.Score, 0, len(departments))
	for _, department := range departments {
		previousRank, err := s.repo.PreviousRank(ctx, s.db, orgID, department.ID, string(periodType), periodValue)
		if err != nil {
			fail(department.ID, err)
			continue
		}
		score := buildScore(department, domain.AggregateLicenses(byDepartment[department.ID]))
		score.ID = s.genID.Generate()
		score.Period = periodValue
		score.PeriodType = string(periodType)
		score.PreviousRank = previousRank
		score.CreatedAt = now
		score.UpdatedAt = now
		scores = append(scores, score)
	}

	domain.AssignRanks(scores)

	for _, score := range scores {
		if err := s.persist(ctx, score, now); err != nil {
			fail(score.DepartmentID, err)
			continue
		}
		report.Scored++
		impactmetrics.RecordEfficiency(orgID.String(), score.DepartmentID.String(), score.EfficiencyScore)
	}

	s.metrics.RecordScores(ctx, string(periodType), report.Scored)
	s.metrics.RecordFailures(ctx, generatorName, len(report.Failures))

	fields := []zap.Field{
		zap.String("org_id", orgID.String()),
		zap.String("period", periodValue),
		zap.String("period_type", string(periodType)),
		zap.Int("scored", report.Scored),
		zap.Int("failures", len(report.Failures)),
	}
	if joined := errors.Join(errs...); joined != nil {
		s.log.Warn("score calculation finished with failures", append(fields, zap.Error(joined))...)
	} else {
		s.log.Info("score calculation finished", fields...)
	}
	return report, nil
}

func buildScore(department *departmentdomain.Department, m domain.DepartmentMetrics) *domain.Score {
	utilization := domain.UtilizationRate(m.UsedSeats, m.TotalSeats)
	spend := m.TotalSpend.Round(2).InexactFloat64()
	adherence := domain.BudgetAdherence(spend, department.Budget)

	return &domain.Score{
		OrgID:            department.OrgID,
		DepartmentID:     department.ID,
		EfficiencyScore:  domain.EfficiencyScore(utilization, adherence),
		UtilizationRate:  math.Round(utilization),
		BudgetAdherence:  math.Round(adherence),
		TotalSpend:       spend,
		BudgetAllocated:  department.Budget,
		LicensesManaged:  m.TotalLicenses,
		ActiveLicenses:   m.ActiveLicenses,
		TotalSeats:       m.TotalSeats,
		UsedSeats:        m.UsedSeats,
		PotentialSavings: m.PotentialSavings.Round(2).InexactFloat64(),
		ActualSavings:    m.ActualSavings.InexactFloat64(),
		Badges:           datatypes.JSONSlice[string]{},
	}
}

func (s *Service) persist(ctx context.Context, score *domain.Score, now time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.UpsertScore(ctx, tx, score); err != nil {
			return err
		}

		awards := domain.EvaluateBadges(domain.BadgeInput{
			Rank:            score.Rank,
			PreviousRank:    score.PreviousRank,
			EfficiencyScore: score.EfficiencyScore,
			UtilizationRate: score.UtilizationRate,
		})
		badges := make([]string, 0, len(awards))
		for _, award := range awards {
			badge := &domain.Badge{
				ID:           s.genID.Generate(),
				OrgID:        score.OrgID,
				DepartmentID: score.DepartmentID,
				BadgeType:    string(award.Type),
				EarnedDate:   now,
				Period:       score.Period,
				Criteria:     datatypes.NewJSONType(award.Criteria),
				CreatedAt:    now,
			}
			if err := s.repo.InsertBadge(ctx, tx, badge); err != nil {
				return err
			}
			badges = append(badges, badge.BadgeType)
		}

		if err := s.repo.SetScoreBadges(ctx, tx, score, badges); err != nil {
			return err
		}
		score.Badges = badges
		return nil
	})
}

func (s *Service) Leaderboard(ctx context.Context, req domain.LeaderboardRequest) ([]domain.LeaderboardEntry, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	periodType, err := period.ParseType(req.PeriodType)
	if err != nil {
		return nil, err
	}
	periodValue, err := period.Resolve(req.Period, s.clock.Now(), periodType)
	if err != nil {
		return nil, err
	}

	scores, err := s.repo.ListScores(ctx, s.db, orgID, periodValue, string(periodType))
	if err != nil {
		return nil, err
	}
	departments, err := s.listDepartments(ctx, orgID)
	if err != nil {
		return nil, err
	}
	names := make(map[snowflake.ID]string, len(departments))
	for _, department := range departments {
		names[department.ID] = department.Name
	}

	entries := make([]domain.LeaderboardEntry, 0, len(scores))
	for i, score := range scores {
		rank := i + 1
		entry := domain.LeaderboardEntry{
			Score:      *score,
			Department: "Unknown",
			Medal:      domain.Medal(rank),
		}
		entry.Rank = rank
		if name, ok := names[score.DepartmentID]; ok {
			entry.Department = name
		}
		if score.PreviousRank != nil && *score.PreviousRank > 0 {
			entry.RankChange = *score.PreviousRank - rank
		}
		if entry.Badges == nil {
			entry.Badges = datatypes.JSONSlice[string]{}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Service) DepartmentPerformance(ctx context.Context, req domain.PerformanceRequest) ([]domain.Score, error) {
	department, err := s.findDepartment(ctx, req.DepartmentID)
	if err != nil {
		return nil, err
	}
	periodType, err := period.ParseType(req.PeriodType)
	if err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultHistorySize
	}

	history, err := s.repo.ListDepartmentHistory(ctx, s.db, department.OrgID, department.ID, string(periodType), limit)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Score, len(history))
	for i, score := range history {
		resp[len(history)-1-i] = *score
	}
	return resp, nil
}

// DepartmentBadges returns the latest badge per (department, badge type).
func (s *Service) DepartmentBadges(ctx context.Context, departmentID string) ([]domain.BadgeResponse, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var filter *snowflake.ID
	if strings.TrimSpace(departmentID) != "" {
		department, err := s.findDepartment(ctx, departmentID)
		if err != nil {
			return nil, err
		}
		filter = &department.ID
	}

	badges, err := s.repo.ListBadges(ctx, s.db, orgID, filter)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(badges))
	resp := make([]domain.BadgeResponse, 0, len(badges))
	for _, badge := range badges {
		key := badge.DepartmentID.String() + "-" + badge.BadgeType
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		resp = append(resp, toBadgeResponse(badge))
	}
	return resp, nil
}

func (s *Service) AwardBadge(ctx context.Context, req domain.AwardBadgeRequest) (*domain.BadgeResponse, error) {
	if _, err := orgIDFromContext(ctx); err != nil {
		return nil, err
	}
	if orgcontext.RoleFromContext(ctx) != "admin" {
		return nil, domain.ErrAdminRequired
	}

	badgeType := domain.BadgeType(strings.TrimSpace(req.BadgeType))
	if !badgeType.Valid() {
		return nil, domain.ErrInvalidBadgeType
	}
	department, err := s.findDepartment(ctx, req.DepartmentID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	periodValue := strings.TrimSpace(req.Period)
	if periodValue == "" {
		periodValue = period.Default(now, period.Monthly)
	} else if _, _, err := period.Bounds(periodValue); err != nil {
		return nil, err
	}
	criteria := domain.Criteria{Description: "Awarded manually"}
	if req.Criteria != nil {
		criteria = *req.Criteria
	}

	badge := &domain.Badge{
		ID:           s.genID.Generate(),
		OrgID:        department.OrgID,
		DepartmentID: department.ID,
		BadgeType:    string(badgeType),
		EarnedDate:   now,
		Period:       periodValue,
		Criteria:     datatypes.NewJSONType(criteria),
		CreatedAt:    now,
	}
	if err := s.repo.InsertBadge(ctx, s.db, badge); err != nil {
		return nil, err
	}
	s.log.Info("badge awarded",
		zap.String("department_id", department.ID.String()),
		zap.String("badge_type", badge.BadgeType),
		zap.String("period", periodValue),
	)

	resp := toBadgeResponse(badge)
	return &resp, nil
}

func (s *Service) listDepartments(ctx context.Context, orgID snowflake.ID) ([]*departmentdomain.Department, error) {
	return s.departments.Find(ctx, &departmentdomain.Department{OrgID: orgID}, option.WithSortBy("created_at ASC, id ASC"))
}

func (s *Service) findDepartment(ctx context.Context, id string) (*departmentdomain.Department, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	departmentID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || departmentID == 0 {
		return nil, domain.ErrInvalidDepartment
	}
	department, err := s.departments.FindOne(ctx, &departmentdomain.Department{ID: departmentID, OrgID: orgID})
	if err != nil {
		return nil, err
	}
	if department == nil {
		return nil, domain.ErrDepartmentNotFound
	}
	return department, nil
}

func toBadgeResponse(badge *domain.Badge) domain.BadgeResponse {
	return domain.BadgeResponse{
		ID:           badge.ID.String(),
		DepartmentID: badge.DepartmentID.String(),
		BadgeType:    badge.BadgeType,
		EarnedDate:   badge.EarnedDate,
		Period:       badge.Period,
		Criteria:     badge.Criteria.Data(),
	}
}

func orgIDFromContext(ctx context.Context) (snowflake.ID, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, domain.ErrInvalidOrganization
	}
	return orgID, nil
}
