package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/seatwise/internal/clock"
	"github.com/smallbiznis/seatwise/internal/config"
	departmentdomain "github.com/smallbiznis/seatwise/internal/department/domain"
	"github.com/smallbiznis/seatwise/internal/environmental/domain"
	"github.com/smallbiznis/seatwise/internal/environmental/repository"
	insightdomain "github.com/smallbiznis/seatwise/internal/insight/domain"
	insightrepo "github.com/smallbiznis/seatwise/internal/insight/repository"
	licensedomain "github.com/smallbiznis/seatwise/internal/license/domain"
	licenserepo "github.com/smallbiznis/seatwise/internal/license/repository"
	organizationdomain "github.com/smallbiznis/seatwise/internal/organization/domain"
	organizationrepo "github.com/smallbiznis/seatwise/internal/organization/repository"
	"github.com/smallbiznis/seatwise/internal/orgcontext"
	"github.com/smallbiznis/seatwise/internal/providers/pdf"
	"github.com/smallbiznis/seatwise/internal/runlock"
	"github.com/smallbiznis/seatwise/pkg/db"
	pkgrepository "github.com/smallbiznis/seatwise/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/datatypes"
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

func newHarness(t *testing.T) *harness {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&domain.Snapshot{},
		&departmentdomain.Department{},
		&licensedomain.License{},
		&insightdomain.Insight{},
		&organizationdomain.Organization{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(testNow)
	svc := New(Params{
		DB:            conn,
		Log:           zaptest.NewLogger(t),
		GenID:         node,
		Clock:         clk,
		Factors:       config.NewStaticImpactFactorsHolder(config.DefaultImpactFactors()),
		Repo:          repository.Provide(),
		Licenses:      licenserepo.Provide(),
		Insights:      insightrepo.Provide(),
		Departments:   pkgrepository.ProvideStore[departmentdomain.Department](conn),
		Organizations: organizationrepo.NewRepository(conn),
		PDF:           pdf.New(),
		Locker:        runlock.NewLocalLocker(),
	})

	orgID := node.Generate()
	require.NoError(t, conn.Create(&organizationdomain.Organization{
		ID:        orgID,
		Name:      "Acme",
		Slug:      "acme",
		Settings:  datatypes.NewJSONType(organizationdomain.DefaultSettings()),
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}).Error)

	return &harness{
		svc:   svc,
		db:    conn,
		node:  node,
		orgID: orgID,
		ctx:   orgcontext.WithOrgID(context.Background(), int64(orgID)),
		clock: clk,
	}
}

func (h *harness) addDepartment(t *testing.T, name string) *departmentdomain.Department {
	t.Helper()
	department := &departmentdomain.Department{
		ID:        h.node.Generate(),
		OrgID:     h.orgID,
		Name:      name,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
	require.NoError(t, h.db.Create(department).Error)
	return department
}

func (h *harness) addLicense(t *testing.T, departmentID *snowflake.ID, total, used int, status string) *licensedomain.License {
	t.Helper()
	license := &licensedomain.License{
		ID:           h.node.Generate(),
		OrgID:        h.orgID,
		DepartmentID: departmentID,
		Vendor:       "Vendor",
		Name:         "Suite",
		LicenseType:  licensedomain.TypePerUser,
		TotalSeats:   total,
		UsedSeats:    used,
		CostPerSeat:  10,
		TotalCost:    float64(total) * 10,
		BillingCycle: licensedomain.BillingMonthly,
		PurchaseDate: testNow.AddDate(-1, 0, 0),
		RenewalDate:  testNow.AddDate(0, 6, 0),
		Status:       status,
		CreatedAt:    testNow,
		UpdatedAt:    testNow,
	}
	require.NoError(t, h.db.Create(license).Error)
	return license
}

func (h *harness) addResolvedInsight(t *testing.T, departmentID *snowflake.ID, createdAt time.Time) {
	t.Helper()
	require.NoError(t, h.db.Create(&insightdomain.Insight{
		ID:           h.node.Generate(),
		OrgID:        h.orgID,
		DepartmentID: departmentID,
		Type:         insightdomain.TypeUnusedLicense,
		Severity:     insightdomain.SeverityHigh,
		Title:        "unused",
		Description:  "unused",
		Status:       insightdomain.StatusResolved,
		Metadata:     datatypes.JSONMap{},
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}).Error)
}

func TestCalculateScenario(t *testing.T) {
	h := newHarness(t)
	engineering := h.addDepartment(t, "Engineering")
	h.addLicense(t, &engineering.ID, 30, 10, licensedomain.StatusActive)
	h.addLicense(t, nil, 50, 0, licensedomain.StatusCancelled)

	report, err := h.svc.Calculate(h.ctx, domain.CalculateRequest{})
	require.NoError(t, err)
	assert.Equal(t, "2025-06", report.Period)
	assert.Equal(t, 20, report.TotalUnusedLicenses)
	assert.InDelta(t, 3.0, report.CO2SavedKg, 1e-9)
	assert.Equal(t, 1, report.DepartmentsProcessed)
	assert.Empty(t, report.Failures)

	overview, err := h.svc.Overview(h.ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 20, overview.UnusedLicenses)
	assert.InDelta(t, 3.0, overview.CO2SavedKg, 1e-9)
	assert.InDelta(t, 10.0, overview.EnergySavedKWh, 1e-9)
	assert.InDelta(t, 40.0, overview.WaterSavedLiters, 1e-9)
	assert.InDelta(t, 1.8, overview.TreeEquivalent, 1e-9)
	assert.InDelta(t, 7.43, overview.CarMilesEquivalent, 0.005)
	assert.InDelta(t, 3.0, overview.CumulativeCO2, 1e-9)
}

func TestCalculateOverwritesAndAccumulates(t *testing.T) {
	h := newHarness(t)
	h.addLicense(t, nil, 10, 0, licensedomain.StatusActive)

	_, err := h.svc.Calculate(h.ctx, domain.CalculateRequest{Period: "2025-05"})
	require.NoError(t, err)
	_, err = h.svc.Calculate(h.ctx, domain.CalculateRequest{Period: "2025-06"})
	require.NoError(t, err)
	_, err = h.svc.Calculate(h.ctx, domain.CalculateRequest{Period: "2025-06"})
	require.NoError(t, err)

	var count int64
	require.NoError(t, h.db.Model(&domain.Snapshot{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	overview, err := h.svc.Overview(h.ctx, "2025-06")
	require.NoError(t, err)
	assert.InDelta(t, 1.5, overview.CO2SavedKg, 1e-9)
	assert.InDelta(t, 3.0, overview.CumulativeCO2, 1e-9)

	trend, err := h.svc.Trend(h.ctx, 0)
	require.NoError(t, err)
	require.Len(t, trend, 2)
	assert.Equal(t, "2025-05", trend[0].Period)
	assert.Equal(t, "2025-06", trend[1].Period)

	_, err = h.svc.Trend(h.ctx, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidMonths)
}

func TestCalculateCountsOptimizationActionsInPeriod(t *testing.T) {
	h := newHarness(t)
	engineering := h.addDepartment(t, "Engineering")
	h.addLicense(t, &engineering.ID, 10, 5, licensedomain.StatusActive)
	h.addResolvedInsight(t, &engineering.ID, time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC))
	h.addResolvedInsight(t, nil, time.Date(2025, time.June, 30, 23, 0, 0, 0, time.UTC))
	h.addResolvedInsight(t, &engineering.ID, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC))

	_, err := h.svc.Calculate(h.ctx, domain.CalculateRequest{})
	require.NoError(t, err)

	overview, err := h.svc.Overview(h.ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, overview.OptimizationActions)

	rankings, err := h.svc.DepartmentRankings(h.ctx, "")
	require.NoError(t, err)
	require.Len(t, rankings, 1)
	assert.Equal(t, 1, rankings[0].OptimizationActions)
}

func TestDepartmentRankings(t *testing.T) {
	h := newHarness(t)
	small := h.addDepartment(t, "Small")
	large := h.addDepartment(t, "Large")
	orphan := h.node.Generate()
	h.addLicense(t, &small.ID, 4, 2, licensedomain.StatusActive)
	h.addLicense(t, &large.ID, 40, 10, licensedomain.StatusActive)
	h.addLicense(t, &orphan, 10, 0, licensedomain.StatusActive)

	_, err := h.svc.Calculate(h.ctx, domain.CalculateRequest{})
	require.NoError(t, err)

	rankings, err := h.svc.DepartmentRankings(h.ctx, "")
	require.NoError(t, err)
	require.Len(t, rankings, 3)
	assert.Equal(t, "Large", rankings[0].DepartmentName)
	assert.InDelta(t, 4.5, rankings[0].CO2SavedKg, 1e-9)
	assert.InDelta(t, rankings[0].CO2SavedKg, rankings[0].CumulativeCO2, 1e-9)
	assert.Equal(t, "Unknown", rankings[1].DepartmentName)
	assert.Equal(t, "Small", rankings[2].DepartmentName)
}

func TestOverviewDefaultsToZero(t *testing.T) {
	h := newHarness(t)

	overview, err := h.svc.Overview(h.ctx, "")
	require.NoError(t, err)
	assert.Equal(t, domain.OverviewResponse{Period: "2025-06"}, *overview)

	_, err = h.svc.Overview(h.ctx, "2025-Q2")
	assert.Error(t, err)
}

func TestCalculateRejectsConcurrentRun(t *testing.T) {
	h := newHarness(t)
	locker := runlock.NewLocalLocker()
	release, err := locker.Acquire(context.Background(), runlock.Key("impact", int64(h.orgID)))
	require.NoError(t, err)
	defer release()

	h.svc.(*Service).locker = locker
	_, err = h.svc.Calculate(h.ctx, domain.CalculateRequest{})
	assert.ErrorIs(t, err, runlock.ErrRunInProgress)
}

func TestReport(t *testing.T) {
	h := newHarness(t)
	engineering := h.addDepartment(t, "Engineering")
	h.addLicense(t, &engineering.ID, 30, 10, licensedomain.StatusActive)
	_, err := h.svc.Calculate(h.ctx, domain.CalculateRequest{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, h.svc.Report(h.ctx, "", &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}
