package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/seatwise/internal/clock"
	"github.com/smallbiznis/seatwise/internal/dashboard/domain"
	insightdomain "github.com/smallbiznis/seatwise/internal/insight/domain"
	licensedomain "github.com/smallbiznis/seatwise/internal/license/domain"
	"github.com/smallbiznis/seatwise/internal/orgcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	renewalWindowDays  = 30
	recentInsightLimit = 5
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Licenses licensedomain.Repository
	Insights insightdomain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	licenses licensedomain.Repository
	insights insightdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("dashboard.service"),
		clock:    p.Clock,
		licenses: p.Licenses,
		insights: p.Insights,
	}
}

func (s *Service) Overview(ctx context.Context) (*domain.Overview, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	licenses, err := s.licenses.List(ctx, s.db, orgID, licensedomain.ListFilter{})
	if err != nil {
		return nil, err
	}
	insights, err := s.insights.List(ctx, s.db, orgID, insightdomain.ListFilter{
		Status: insightdomain.StatusNew,
		Limit:  recentInsightLimit,
	})
	if err != nil {
		return nil, err
	}

	renewalCutoff := s.clock.Now().AddDate(0, 0, renewalWindowDays)
	overview := &domain.Overview{TotalLicenses: len(licenses)}
	totalCost := decimal.Zero
	for _, license := range licenses {
		if license.Status == licensedomain.StatusActive {
			overview.ActiveLicenses++
			// Renewals already past due still count as upcoming.
			if !license.RenewalDate.After(renewalCutoff) {
				overview.UpcomingRenewals++
			}
		}
		totalCost = totalCost.Add(decimal.NewFromFloat(license.TotalCost))
		overview.TotalSeats += license.TotalSeats
		overview.UsedSeats += license.UsedSeats
	}
	overview.TotalCost = totalCost.Round(2).InexactFloat64()
	overview.UtilizationRate = licensedomain.UtilizationRate(overview.UsedSeats, overview.TotalSeats)

	savings := decimal.Zero
	for _, insight := range insights {
		if insight.PotentialSavings != nil {
			savings = savings.Add(decimal.NewFromFloat(*insight.PotentialSavings))
		}
	}
	overview.RecentInsights = len(insights)
	overview.PotentialSavings = savings.Round(2).InexactFloat64()

	return overview, nil
}
