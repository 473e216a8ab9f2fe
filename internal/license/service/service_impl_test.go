package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/seatwise/internal/clock"
	departmentdomain "github.com/smallbiznis/seatwise/internal/department/domain"
	departmentservice "github.com/smallbiznis/seatwise/internal/department/service"
	"github.com/smallbiznis/seatwise/internal/license/domain"
	"github.com/smallbiznis/seatwise/internal/license/repository"
	"github.com/smallbiznis/seatwise/internal/orgcontext"
	"github.com/smallbiznis/seatwise/pkg/db"
	genericrepo "github.com/smallbiznis/seatwise/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"
)

var testNow = time.Date(2025, time.May, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc         domain.Service
	departments departmentdomain.Service
	clock       *clock.FakeClock
	ctx         context.Context
	node        *snowflake.Node
}

func setupLicenseService(t *testing.T) fixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.License{}, &domain.UsageRecord{}, &departmentdomain.Department{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(testNow)
	log := zaptest.NewLogger(t)

	departments := departmentservice.New(departmentservice.Params{
		Log:   log,
		GenID: node,
		Repo:  genericrepo.ProvideStore[departmentdomain.Department](conn),
		Clock: clk,
	})
	svc := New(Params{
		DB:          conn,
		Log:         log,
		GenID:       node,
		Clock:       clk,
		Repo:        repository.Provide(),
		Departments: departments,
	})

	return fixture{
		svc:         svc,
		departments: departments,
		clock:       clk,
		ctx:         orgcontext.WithOrgID(context.Background(), int64(node.Generate())),
		node:        node,
	}
}

func createLicense(t *testing.T, f fixture, name string, mutate func(*domain.CreateRequest)) *domain.Response {
	t.Helper()
	req := domain.CreateRequest{
		Vendor:       "Vendor",
		Name:         name,
		Category:     "productivity",
		LicenseType:  domain.TypePerUser,
		TotalSeats:   10,
		UsedSeats:    8,
		CostPerSeat:  decimal.RequireFromString("12.50"),
		BillingCycle: domain.BillingMonthly,
		RenewalDate:  "2025-05-10",
	}
	if mutate != nil {
		mutate(&req)
	}
	resp, err := f.svc.Create(f.ctx, req)
	require.NoError(t, err)
	return resp
}

func TestCreateLicenseComputesDerivedFields(t *testing.T) {
	f := setupLicenseService(t)

	resp := createLicense(t, f, "Slack", nil)
	assert.Equal(t, domain.StatusActive, resp.Status)
	assert.Equal(t, 125.0, resp.TotalCost)
	assert.Equal(t, 80, resp.UtilizationRate)
	// 8.5 days remain, rounded up.
	assert.Equal(t, 9, resp.DaysUntilRenewal)
}

func TestUpdateLicenseRecomputesTotalCost(t *testing.T) {
	f := setupLicenseService(t)
	created := createLicense(t, f, "Zoom", nil)

	seats := 20
	updated, err := f.svc.Update(f.ctx, domain.UpdateRequest{ID: created.ID, TotalSeats: &seats})
	require.NoError(t, err)
	assert.Equal(t, 250.0, updated.TotalCost)
	assert.Equal(t, 40, updated.UtilizationRate)

	cost := decimal.NewFromInt(3)
	updated, err = f.svc.Update(f.ctx, domain.UpdateRequest{ID: created.ID, CostPerSeat: &cost})
	require.NoError(t, err)
	assert.Equal(t, 60.0, updated.TotalCost)

	got, err := f.svc.Get(f.ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 60.0, got.TotalCost)
	assert.Equal(t, 20, got.TotalSeats)
}

func TestLicenseNotFoundAcrossOrganizations(t *testing.T) {
	f := setupLicenseService(t)
	created := createLicense(t, f, "Figma", nil)

	other := orgcontext.WithOrgID(context.Background(), int64(f.node.Generate()))
	_, err := f.svc.Get(other, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	name := "Hijacked"
	_, err = f.svc.Update(other, domain.UpdateRequest{ID: created.ID, Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, f.svc.Delete(other, created.ID), domain.ErrNotFound)
	require.NoError(t, f.svc.Delete(f.ctx, created.ID))
	_, err = f.svc.Get(f.ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListLicensesFiltersAndSorts(t *testing.T) {
	f := setupLicenseService(t)
	createLicense(t, f, "Zendesk", nil)
	createLicense(t, f, "Asana", nil)
	createLicense(t, f, "Miro", func(req *domain.CreateRequest) {
		req.Status = domain.StatusCancelled
		req.Category = "design"
	})

	items, err := f.svc.List(f.ctx, domain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"Asana", "Miro", "Zendesk"}, []string{items[0].Name, items[1].Name, items[2].Name})

	active, err := f.svc.List(f.ctx, domain.ListRequest{Status: domain.StatusActive})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	design, err := f.svc.List(f.ctx, domain.ListRequest{Category: "design"})
	require.NoError(t, err)
	require.Len(t, design, 1)
	assert.Equal(t, "Miro", design[0].Name)
}

func TestCreateLicenseValidation(t *testing.T) {
	f := setupLicenseService(t)

	_, err := f.svc.Create(f.ctx, domain.CreateRequest{Vendor: "V", Name: "N", LicenseType: "floating", BillingCycle: domain.BillingAnnual, RenewalDate: "2025-06-01"})
	assert.ErrorIs(t, err, domain.ErrInvalidLicenseType)

	_, err = f.svc.Create(f.ctx, domain.CreateRequest{Vendor: "V", Name: "N", LicenseType: domain.TypeEnterprise, BillingCycle: domain.BillingAnnual, RenewalDate: "soon"})
	assert.ErrorIs(t, err, domain.ErrInvalidDate)

	_, err = f.svc.Create(f.ctx, domain.CreateRequest{Vendor: "V", Name: "N", LicenseType: domain.TypeEnterprise, BillingCycle: domain.BillingAnnual, RenewalDate: "2025-06-01", DepartmentID: f.node.Generate().String()})
	assert.ErrorIs(t, err, domain.ErrInvalidDepartment)
}

func TestRecordAndListUsage(t *testing.T) {
	f := setupLicenseService(t)
	created := createLicense(t, f, "GitHub", nil)

	_, err := f.svc.RecordUsage(f.ctx, domain.RecordUsageRequest{LicenseID: created.ID, UserEmail: "A@Example.com", LastActiveDate: "2025-04-20", UsageHours: 3.5})
	require.NoError(t, err)
	inactive := false
	_, err = f.svc.RecordUsage(f.ctx, domain.RecordUsageRequest{LicenseID: created.ID, UserEmail: "b@example.com", LastActiveDate: "2025-02-01T00:00:00Z", IsActive: &inactive})
	require.NoError(t, err)

	records, err := f.svc.ListUsage(f.ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a@example.com", records[0].UserEmail)
	assert.True(t, records[0].IsActive)
	assert.False(t, records[1].IsActive)
	assert.Equal(t, 1, domain.CountActiveUsers(records, f.clock.Now()))
}

func TestExportWritesWorkbook(t *testing.T) {
	f := setupLicenseService(t)
	dept, err := f.departments.Create(f.ctx, departmentdomain.CreateRequest{Name: "Engineering", Budget: decimal.NewFromInt(1000)})
	require.NoError(t, err)
	createLicense(t, f, "Jira", func(req *domain.CreateRequest) { req.DepartmentID = dept.ID })

	var buf bytes.Buffer
	require.NoError(t, f.svc.Export(f.ctx, domain.ListRequest{}, &buf))

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Name", rows[0][0])
	assert.Equal(t, "Jira", rows[1][0])
	assert.Equal(t, "Engineering", rows[1][4])
	assert.Equal(t, "80", rows[1][7])
}
