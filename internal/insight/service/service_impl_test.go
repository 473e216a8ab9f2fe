package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/seatwise/internal/clock"
	"github.com/smallbiznis/seatwise/internal/config"
	"github.com/smallbiznis/seatwise/internal/insight/domain"
	"github.com/smallbiznis/seatwise/internal/insight/repository"
	licensedomain "github.com/smallbiznis/seatwise/internal/license/domain"
	licenserepo "github.com/smallbiznis/seatwise/internal/license/repository"
	"github.com/smallbiznis/seatwise/internal/orgcontext"
	"github.com/smallbiznis/seatwise/internal/runlock"
	"github.com/smallbiznis/seatwise/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

var testNow = time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)

type harness struct {
	svc   domain.Service
	db    *gorm.DB
	node  *snowflake.Node
	orgID snowflake.ID
	ctx   context.Context
	clock *clock.FakeClock
}

type options struct {
	suppress bool
	licenses licensedomain.Repository
	locker   runlock.Locker
	repo     domain.Repository
}

func newHarness(t *testing.T, opts options) *harness {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&domain.Insight{},
		&domain.GenerationRun{},
		&licensedomain.License{},
		&licensedomain.UsageRecord{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	if opts.licenses == nil {
		opts.licenses = licenserepo.Provide()
	}
	if opts.repo == nil {
		opts.repo = repository.Provide()
	}
	if opts.locker == nil {
		opts.locker = runlock.NewLocalLocker()
	}
	cfg := config.Config{}
	cfg.Insights.SuppressDuplicates = opts.suppress

	clk := clock.NewFakeClock(testNow)
	svc := New(Params{
		DB:       conn,
		Log:      zaptest.NewLogger(t),
		GenID:    node,
		Clock:    clk,
		Config:   cfg,
		Repo:     opts.repo,
		Licenses: opts.licenses,
		Locker:   opts.locker,
	})

	orgID := node.Generate()
	return &harness{
		svc:   svc,
		db:    conn,
		node:  node,
		orgID: orgID,
		ctx:   orgcontext.WithOrgID(context.Background(), int64(orgID)),
		clock: clk,
	}
}

func (h *harness) addLicense(t *testing.T, name string, seats int, cost float64, cycle string, activeUsers int) *licensedomain.License {
	t.Helper()
	license := &licensedomain.License{
		ID:           h.node.Generate(),
		OrgID:        h.orgID,
		Vendor:       "Vendor",
		Name:         name,
		LicenseType:  licensedomain.TypePerUser,
		TotalSeats:   seats,
		UsedSeats:    activeUsers,
		CostPerSeat:  cost,
		TotalCost:    float64(seats) * cost,
		BillingCycle: cycle,
		PurchaseDate: testNow.AddDate(-1, 0, 0),
		RenewalDate:  testNow.AddDate(0, 3, 0),
		Status:       licensedomain.StatusActive,
		CreatedAt:    testNow,
		UpdatedAt:    testNow,
	}
	require.NoError(t, h.db.Create(license).Error)

	for i := 0; i < activeUsers; i++ {
		require.NoError(t, h.db.Create(&licensedomain.UsageRecord{
			ID:             h.node.Generate(),
			OrgID:          h.orgID,
			LicenseID:      license.ID,
			UserEmail:      "active@example.com",
			LastActiveDate: testNow.AddDate(0, 0, -3),
			IsActive:       true,
			CreatedAt:      testNow,
		}).Error)
	}
	// Stale activity never counts.
	require.NoError(t, h.db.Create(&licensedomain.UsageRecord{
		ID:             h.node.Generate(),
		OrgID:          h.orgID,
		LicenseID:      license.ID,
		UserEmail:      "stale@example.com",
		LastActiveDate: testNow.AddDate(0, 0, -45),
		IsActive:       true,
		CreatedAt:      testNow,
	}).Error)
	return license
}

func TestBuildUnusedLicenseInsightScenario(t *testing.T) {
	license := &licensedomain.License{
		ID:           1,
		OrgID:        2,
		Name:         "Slack",
		TotalSeats:   10,
		CostPerSeat:  10,
		BillingCycle: licensedomain.BillingMonthly,
	}

	insight := BuildUnusedLicenseInsight(license, 2)
	require.NotNil(t, insight)
	require.NotNil(t, insight.PotentialSavings)
	assert.Equal(t, 960.0, *insight.PotentialSavings)
	assert.InDelta(t, 88.0, insight.Confidence, 1e-9)
	assert.Equal(t, domain.SeverityHigh, insight.Severity)
	assert.Equal(t, "8 unused seats in Slack", insight.Title)
	assert.Equal(t, "8 out of 10 seats haven't been used in the last 30 days. Consider reducing your subscription.", insight.Description)
	assert.Equal(t, "Reduce subscription by 8 seats", insight.Metadata["recommendedAction"])
	assert.Equal(t, domain.StatusNew, insight.Status)
}

func TestBuildUnusedLicenseInsightKeepsFractionalConfidence(t *testing.T) {
	license := &licensedomain.License{TotalSeats: 3, CostPerSeat: 1, BillingCycle: licensedomain.BillingMonthly}

	insight := BuildUnusedLicenseInsight(license, 2)
	require.NotNil(t, insight)
	assert.InDelta(t, 60+35.0/3, insight.Confidence, 1e-9)
}

func TestBuildUnusedLicenseInsightBounds(t *testing.T) {
	for total := 1; total <= 40; total++ {
		for active := 0; active <= total; active++ {
			license := &licensedomain.License{TotalSeats: total, CostPerSeat: 5, BillingCycle: licensedomain.BillingAnnual}
			insight := BuildUnusedLicenseInsight(license, active)
			if active == total {
				assert.Nil(t, insight)
				continue
			}
			require.NotNil(t, insight)
			assert.GreaterOrEqual(t, insight.Confidence, 60.0)
			assert.LessOrEqual(t, insight.Confidence, 95.0)
		}
	}

	half := BuildUnusedLicenseInsight(&licensedomain.License{TotalSeats: 10, BillingCycle: licensedomain.BillingAnnual}, 5)
	require.NotNil(t, half)
	assert.Equal(t, domain.SeverityMedium, half.Severity)

	assert.Nil(t, BuildUnusedLicenseInsight(&licensedomain.License{TotalSeats: 0}, 0))
}

func TestGenerateDuplicatesByDefault(t *testing.T) {
	h := newHarness(t, options{})
	h.addLicense(t, "Slack", 10, 10, licensedomain.BillingMonthly, 2)
	h.addLicense(t, "Zoom", 2, 15, licensedomain.BillingAnnual, 2)

	first, err := h.svc.GenerateUnusedLicenseInsights(h.ctx, domain.GenerateRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)
	assert.NotEmpty(t, first.RunID)

	second, err := h.svc.GenerateUnusedLicenseInsights(h.ctx, domain.GenerateRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Created)
	assert.NotEqual(t, first.RunID, second.RunID)

	items, err := h.svc.List(h.ctx, domain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestGenerateSuppressesOpenDuplicates(t *testing.T) {
	h := newHarness(t, options{suppress: true})
	h.addLicense(t, "Slack", 10, 10, licensedomain.BillingMonthly, 2)

	first, err := h.svc.GenerateUnusedLicenseInsights(h.ctx, domain.GenerateRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)

	second, err := h.svc.GenerateUnusedLicenseInsights(h.ctx, domain.GenerateRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 1, second.Skipped)

	items, err := h.svc.List(h.ctx, domain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, items, 1)

	_, err = h.svc.UpdateStatus(h.ctx, domain.UpdateStatusRequest{ID: items[0].ID, Status: domain.StatusDismissed})
	require.NoError(t, err)

	third, err := h.svc.GenerateUnusedLicenseInsights(h.ctx, domain.GenerateRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, third.Created)
}

func TestGenerateReplaysIdempotencyKey(t *testing.T) {
	h := newHarness(t, options{})
	h.addLicense(t, "Slack", 10, 10, licensedomain.BillingMonthly, 2)

	first, err := h.svc.GenerateUnusedLicenseInsights(h.ctx, domain.GenerateRequest{IdempotencyKey: "nightly-1"})
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	replayed, err := h.svc.GenerateUnusedLicenseInsights(h.ctx, domain.GenerateRequest{IdempotencyKey: "nightly-1"})
	require.NoError(t, err)
	assert.True(t, replayed.Replayed)
	assert.Equal(t, first.RunID, replayed.RunID)
	assert.Equal(t, first.Created, replayed.Created)

	var count int64
	require.NoError(t, h.db.Model(&domain.Insight{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	other := orgcontext.WithOrgID(context.Background(), int64(h.node.Generate()))
	fresh, err := h.svc.GenerateUnusedLicenseInsights(other, domain.GenerateRequest{IdempotencyKey: "nightly-1"})
	require.NoError(t, err)
	assert.False(t, fresh.Replayed)
}

type failingUsageRepo struct {
	licensedomain.Repository
	failFor snowflake.ID
}

func (r failingUsageRepo) ListUsage(ctx context.Context, db *gorm.DB, orgID, licenseID snowflake.ID) ([]licensedomain.UsageRecord, error) {
	if licenseID == r.failFor {
		return nil, errors.New("usage store unavailable")
	}
	return r.Repository.ListUsage(ctx, db, orgID, licenseID)
}

func TestGenerateIsolatesPerLicenseFailures(t *testing.T) {
	stub := &failingUsageRepo{Repository: licenserepo.Provide()}
	h := newHarness(t, options{licenses: stub})
	broken := h.addLicense(t, "Asana", 5, 8, licensedomain.BillingMonthly, 1)
	h.addLicense(t, "Slack", 10, 10, licensedomain.BillingMonthly, 2)
	stub.failFor = broken.ID

	report, err := h.svc.GenerateUnusedLicenseInsights(h.ctx, domain.GenerateRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, broken.ID.String(), report.Failures[0].LicenseID)
	assert.Contains(t, report.Failures[0].Error, "usage store unavailable")
}

type busyLocker struct{}

func (busyLocker) Acquire(context.Context, string) (func(), error) {
	return nil, runlock.ErrRunInProgress
}

func TestGenerateRejectsConcurrentRun(t *testing.T) {
	h := newHarness(t, options{locker: busyLocker{}})

	_, err := h.svc.GenerateUnusedLicenseInsights(h.ctx, domain.GenerateRequest{})
	assert.ErrorIs(t, err, runlock.ErrRunInProgress)
}

func TestUpdateStatusTransitions(t *testing.T) {
	h := newHarness(t, options{})
	h.addLicense(t, "Slack", 10, 10, licensedomain.BillingMonthly, 2)
	h.addLicense(t, "Zoom", 4, 10, licensedomain.BillingMonthly, 0)

	_, err := h.svc.GenerateUnusedLicenseInsights(h.ctx, domain.GenerateRequest{})
	require.NoError(t, err)
	items, err := h.svc.List(h.ctx, domain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	first, second := items[0].ID, items[1].ID

	_, err = h.svc.UpdateStatus(h.ctx, domain.UpdateStatusRequest{ID: first, Status: domain.StatusResolved})
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)
	_, err = h.svc.UpdateStatus(h.ctx, domain.UpdateStatusRequest{ID: first, Status: domain.StatusNew})
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)

	ack, err := h.svc.UpdateStatus(h.ctx, domain.UpdateStatusRequest{ID: first, Status: domain.StatusAcknowledged})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAcknowledged, ack.Status)
	_, err = h.svc.UpdateStatus(h.ctx, domain.UpdateStatusRequest{ID: first, Status: domain.StatusDismissed})
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)
	resolved, err := h.svc.UpdateStatus(h.ctx, domain.UpdateStatusRequest{ID: first, Status: domain.StatusResolved})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusResolved, resolved.Status)
	_, err = h.svc.UpdateStatus(h.ctx, domain.UpdateStatusRequest{ID: first, Status: domain.StatusAcknowledged})
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)

	_, err = h.svc.UpdateStatus(h.ctx, domain.UpdateStatusRequest{ID: second, Status: domain.StatusDismissed})
	require.NoError(t, err)
	_, err = h.svc.UpdateStatus(h.ctx, domain.UpdateStatusRequest{ID: second, Status: domain.StatusAcknowledged})
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)

	other := orgcontext.WithOrgID(context.Background(), int64(h.node.Generate()))
	_, err = h.svc.UpdateStatus(other, domain.UpdateStatusRequest{ID: second, Status: domain.StatusAcknowledged})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// racingRepo lets another writer change an insight's status right after it is read.
type racingRepo struct {
	domain.Repository
	status string
}

func (r *racingRepo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Insight, error) {
	insight, err := r.Repository.FindByID(ctx, db, orgID, id)
	if err != nil || insight == nil || r.status == "" {
		return insight, err
	}
	if err := db.Model(&domain.Insight{}).Where("id = ?", id).Update("status", r.status).Error; err != nil {
		return nil, err
	}
	return insight, nil
}

func TestUpdateStatusRejectsConcurrentChange(t *testing.T) {
	racing := &racingRepo{Repository: repository.Provide()}
	h := newHarness(t, options{repo: racing})
	h.addLicense(t, "Zoom", 4, 10, licensedomain.BillingMonthly, 0)

	_, err := h.svc.GenerateUnusedLicenseInsights(h.ctx, domain.GenerateRequest{})
	require.NoError(t, err)
	items, err := h.svc.List(h.ctx, domain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, items, 1)

	racing.status = domain.StatusDismissed
	_, err = h.svc.UpdateStatus(h.ctx, domain.UpdateStatusRequest{ID: items[0].ID, Status: domain.StatusAcknowledged})
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)

	id, err := domain.ParseID(items[0].ID)
	require.NoError(t, err)
	var stored domain.Insight
	require.NoError(t, h.db.First(&stored, "id = ?", id).Error)
	assert.Equal(t, domain.StatusDismissed, stored.Status)
}

func TestListEnrichesWithLicense(t *testing.T) {
	h := newHarness(t, options{})
	kept := h.addLicense(t, "Slack", 10, 10, licensedomain.BillingMonthly, 2)
	h.clock.Advance(time.Minute)
	removed := h.addLicense(t, "Zoom", 4, 10, licensedomain.BillingMonthly, 0)

	_, err := h.svc.GenerateUnusedLicenseInsights(h.ctx, domain.GenerateRequest{})
	require.NoError(t, err)
	require.NoError(t, h.db.Delete(&licensedomain.License{}, removed.ID).Error)

	items, err := h.svc.List(h.ctx, domain.ListRequest{Type: domain.TypeUnusedLicense})
	require.NoError(t, err)
	require.Len(t, items, 2)

	byLicense := map[string]domain.Response{}
	for _, item := range items {
		require.NotNil(t, item.LicenseID)
		byLicense[*item.LicenseID] = item
	}
	require.NotNil(t, byLicense[kept.ID.String()].License)
	assert.Equal(t, 20, byLicense[kept.ID.String()].License.UtilizationRate)
	assert.Nil(t, byLicense[removed.ID.String()].License)

	_, err = h.svc.List(h.ctx, domain.ListRequest{Status: "archived"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}
