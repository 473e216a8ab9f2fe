package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/seatwise/internal/clock"
	insightdomain "github.com/smallbiznis/seatwise/internal/insight/domain"
	insightrepo "github.com/smallbiznis/seatwise/internal/insight/repository"
	licensedomain "github.com/smallbiznis/seatwise/internal/license/domain"
	licenserepo "github.com/smallbiznis/seatwise/internal/license/repository"
	"github.com/smallbiznis/seatwise/internal/orgcontext"
	"github.com/smallbiznis/seatwise/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/datatypes"
)

var testNow = time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)

func TestOverview(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&licensedomain.License{}, &insightdomain.Insight{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	orgID := node.Generate()
	otherOrg := node.Generate()

	addLicense := func(org snowflake.ID, total, used int, cost float64, status string, renewal time.Time) {
		require.NoError(t, conn.Create(&licensedomain.License{
			ID:           node.Generate(),
			OrgID:        org,
			Vendor:       "Vendor",
			Name:         "Suite",
			LicenseType:  licensedomain.TypePerUser,
			TotalSeats:   total,
			UsedSeats:    used,
			CostPerSeat:  cost,
			TotalCost:    float64(total) * cost,
			BillingCycle: licensedomain.BillingMonthly,
			PurchaseDate: testNow.AddDate(-1, 0, 0),
			RenewalDate:  renewal,
			Status:       status,
			CreatedAt:    testNow,
			UpdatedAt:    testNow,
		}).Error)
	}
	addLicense(orgID, 10, 5, 12.5, licensedomain.StatusActive, testNow.AddDate(0, 0, 10))
	addLicense(orgID, 20, 10, 5, licensedomain.StatusActive, testNow.AddDate(0, 0, -2))
	addLicense(orgID, 10, 10, 1, licensedomain.StatusActive, testNow.AddDate(0, 2, 0))
	addLicense(orgID, 5, 0, 2, licensedomain.StatusExpired, testNow.AddDate(0, 0, 5))
	addLicense(otherOrg, 100, 0, 100, licensedomain.StatusActive, testNow)

	for i := 0; i < 7; i++ {
		savings := 100.0
		status := insightdomain.StatusNew
		if i == 6 {
			status = insightdomain.StatusResolved
		}
		created := testNow.Add(time.Duration(i) * time.Minute)
		require.NoError(t, conn.Create(&insightdomain.Insight{
			ID:               node.Generate(),
			OrgID:            orgID,
			Type:             insightdomain.TypeUnusedLicense,
			Severity:         insightdomain.SeverityLow,
			Title:            "t",
			Description:      "d",
			PotentialSavings: &savings,
			Status:           status,
			Metadata:         datatypes.JSONMap{},
			CreatedAt:        created,
			UpdatedAt:        created,
		}).Error)
	}

	svc := New(Params{
		DB:       conn,
		Log:      zaptest.NewLogger(t),
		Clock:    clock.NewFakeClock(testNow),
		Licenses: licenserepo.Provide(),
		Insights: insightrepo.Provide(),
	})

	overview, err := svc.Overview(orgcontext.WithOrgID(context.Background(), int64(orgID)))
	require.NoError(t, err)
	assert.Equal(t, 4, overview.TotalLicenses)
	assert.Equal(t, 3, overview.ActiveLicenses)
	assert.Equal(t, 245.0, overview.TotalCost)
	assert.Equal(t, 45, overview.TotalSeats)
	assert.Equal(t, 25, overview.UsedSeats)
	assert.Equal(t, 56, overview.UtilizationRate)
	assert.Equal(t, 2, overview.UpcomingRenewals)
	assert.Equal(t, 5, overview.RecentInsights)
	assert.Equal(t, 500.0, overview.PotentialSavings)
}

func TestOverviewRequiresOrganization(t *testing.T) {
	svc := New(Params{Log: zaptest.NewLogger(t), Clock: clock.NewFakeClock(testNow)})
	_, err := svc.Overview(context.Background())
	require.Error(t, err)
}
