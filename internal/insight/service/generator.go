package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/seatwise/internal/impactmetrics"
	"github.com/smallbiznis/seatwise/internal/insight/domain"
	licensedomain "github.com/smallbiznis/seatwise/internal/license/domain"
	obscontext "github.com/smallbiznis/seatwise/internal/observability/context"
	obslogger "github.com/smallbiznis/seatwise/internal/observability/logger"
	"github.com/smallbiznis/seatwise/internal/runlock"
	"github.com/smallbiznis/seatwise/pkg/db"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	generatorName        = "insights"
	maxIdempotencyKeyLen = 255
	unusedWindowDays     = 30
	baseConfidence       = 60
	confidenceSpan       = 35
	maxConfidence        = 95
)

// GenerateUnusedLicenseInsights inserts one unused_license insight per active license with idle seats.
func (s *Service) GenerateUnusedLicenseInsights(ctx context.Context, req domain.GenerateRequest) (*domain.GenerationReport, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	key := strings.TrimSpace(req.IdempotencyKey)
	if len(key) > maxIdempotencyKeyLen {
		return nil, domain.ErrInvalidIdempotencyKey
	}
	if report, err := s.replay(ctx, orgID, key); report != nil || err != nil {
		return report, err
	}

	release, err := s.locker.Acquire(ctx, runlock.Key(generatorName, int64(orgID)))
	if err != nil {
		if errors.Is(err, runlock.ErrRunInProgress) {
			s.metrics.RecordRunLockContention(ctx, generatorName)
		}
		return nil, err
	}
	defer release()

	// A concurrent run with the same key may have finished while we waited.
	if report, err := s.replay(ctx, orgID, key); report != nil || err != nil {
		return report, err
	}

	report := s.generate(ctx, orgID)

	if key != "" {
		run := &domain.GenerationRun{
			ID:             s.genID.Generate(),
			OrgID:          orgID,
			IdempotencyKey: key,
			RunID:          report.RunID,
			Report:         datatypes.NewJSONType(*report),
			CreatedAt:      s.clock.Now(),
		}
		if err := s.repo.InsertRun(ctx, s.db, run); err != nil && !db.IsDuplicateKeyErr(err) {
			s.log.Warn("failed to store insight generation run", zap.String("run_id", report.RunID), zap.Error(err))
		}
	}

	return report, nil
}

func (s *Service) replay(ctx context.Context, orgID snowflake.ID, key string) (*domain.GenerationReport, error) {
	if key == "" {
		return nil, nil
	}
	run, err := s.repo.FindRun(ctx, s.db, orgID, key)
	if err != nil || run == nil {
		return nil, err
	}
	report := run.Report.Data()
	report.Replayed = true
	if report.Failures == nil {
		report.Failures = []domain.GenerationFailure{}
	}
	s.log.Info("insight generation replayed", zap.String("run_id", report.RunID))
	return &report, nil
}

func (s *Service) generate(ctx context.Context, orgID snowflake.ID) *domain.GenerationReport {
	report := &domain.GenerationReport{
		RunID:    ulid.Make().String(),
		Failures: []domain.GenerationFailure{},
	}
	ctx = obscontext.WithRun(obscontext.WithOrgID(ctx, orgID.String()), generatorName, report.RunID)
	log := obslogger.WithContext(ctx, s.log)

	licenses, err := s.licenses.ListActive(ctx, s.db, orgID)
	if err != nil {
		log.Error("failed to list active licenses", zap.Error(err))
		report.Failures = append(report.Failures, domain.GenerationFailure{Error: err.Error()})
		return report
	}

	now := s.clock.Now()
	var errs []error
	for _, license := range licenses {
		created, skipped, err := s.processLicense(ctx, license, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("license %s: %w", license.ID, err))
			report.Failures = append(report.Failures, domain.GenerationFailure{
				LicenseID: license.ID.String(),
				Error:     err.Error(),
			})
			continue
		}
		if created {
			report.Created++
		}
		if skipped {
			report.Skipped++
		}
	}

	s.metrics.RecordInsights(ctx, domain.TypeUnusedLicense, report.Created, report.Skipped)
	s.metrics.RecordFailures(ctx, generatorName, len(report.Failures))
	impactmetrics.RecordInsightsGenerated(orgID.String(), domain.TypeUnusedLicense, report.Created)

	fields := []zap.Field{
		zap.Int("licenses", len(licenses)),
		zap.Int("created", report.Created),
		zap.Int("skipped", report.Skipped),
		zap.Int("failures", len(report.Failures)),
	}
	if joined := errors.Join(errs...); joined != nil {
		log.Warn("insight generation finished with failures", append(fields, zap.Error(joined))...)
	} else {
		log.Info("insight generation finished", fields...)
	}
	return report
}

func (s *Service) processLicense(ctx context.Context, license *licensedomain.License, now time.Time) (created bool, skipped bool, err error) {
	if s.suppressDuplicates {
		open, err := s.repo.HasOpenInsight(ctx, s.db, license.OrgID, license.ID, domain.TypeUnusedLicense)
		if err != nil {
			return false, false, err
		}
		if open {
			return false, true, nil
		}
	}

	records, err := s.licenses.ListUsage(ctx, s.db, license.OrgID, license.ID)
	if err != nil {
		return false, false, err
	}
	insight := BuildUnusedLicenseInsight(license, licensedomain.CountActiveUsers(records, now))
	if insight == nil {
		return false, false, nil
	}

	insight.ID = s.genID.Generate()
	insight.CreatedAt = now
	insight.UpdatedAt = now
	if err := s.repo.Insert(ctx, s.db, insight); err != nil {
		return false, false, err
	}
	return true, false, nil
}

// BuildUnusedLicenseInsight returns nil when every seat had recent activity.
func BuildUnusedLicenseInsight(license *licensedomain.License, activeUsers int) *domain.Insight {
	unused := license.TotalSeats - activeUsers
	if unused <= 0 || license.TotalSeats <= 0 {
		return nil
	}

	savings := decimal.NewFromInt(int64(unused)).
		Mul(decimal.NewFromFloat(license.CostPerSeat)).
		Mul(decimal.NewFromInt(int64(license.AnnualizationFactor()))).
		Round(2).
		InexactFloat64()

	ratio := float64(unused) / float64(license.TotalSeats)
	confidence := math.Min(maxConfidence, baseConfidence+ratio*confidenceSpan)

	severity := domain.SeverityMedium
	if float64(unused) > float64(license.TotalSeats)*0.5 {
		severity = domain.SeverityHigh
	}

	licenseID := license.ID
	return &domain.Insight{
		OrgID:        license.OrgID,
		LicenseID:    &licenseID,
		DepartmentID: license.DepartmentID,
		Type:         domain.TypeUnusedLicense,
		Severity:     severity,
		Title:        fmt.Sprintf("%d unused seats in %s", unused, license.Name),
		Description: fmt.Sprintf(
			"%d out of %d seats haven't been used in the last %d days. Consider reducing your subscription.",
			unused, license.TotalSeats, unusedWindowDays,
		),
		PotentialSavings: &savings,
		Confidence:       confidence,
		Status:           domain.StatusNew,
		Metadata: datatypes.JSONMap{
			"unusedDays":        unusedWindowDays,
			"recommendedAction": fmt.Sprintf("Reduce subscription by %d seats", unused),
		},
	}
}
