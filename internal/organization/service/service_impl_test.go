package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/seatwise/internal/clock"
	departmentdomain "github.com/smallbiznis/seatwise/internal/department/domain"
	"github.com/smallbiznis/seatwise/internal/organization/domain"
	"github.com/smallbiznis/seatwise/internal/organization/repository"
	"github.com/smallbiznis/seatwise/internal/orgcontext"
	"github.com/smallbiznis/seatwise/pkg/db"
	genericrepo "github.com/smallbiznis/seatwise/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func setupOrganizationService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&domain.Organization{},
		&domain.OrganizationMember{},
		&departmentdomain.Department{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(Params{
		DB:          conn,
		Log:         zaptest.NewLogger(t),
		GenID:       node,
		Clock:       clock.NewFakeClock(time.Date(2025, time.January, 15, 8, 0, 0, 0, time.UTC)),
		Repo:        repository.NewRepository(conn),
		Departments: genericrepo.ProvideStore[departmentdomain.Department](conn),
	})
	return svc, conn, node
}

func TestCreateOrganizationSeedsDefaults(t *testing.T) {
	svc, conn, node := setupOrganizationService(t)
	userID := node.Generate()

	resp, err := svc.Create(context.Background(), userID, domain.CreateOrganizationRequest{
		Name:          "Acme Widgets Inc",
		Domain:        "Acme.com",
		OwnerEmail:    "Owner@Acme.com",
		OwnerFullName: "Olive Owner",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, resp.Role)
	assert.Equal(t, "acme-widgets-inc", resp.Organization.Slug)
	require.NotNil(t, resp.Organization.Domain)
	assert.Equal(t, "acme.com", *resp.Organization.Domain)
	assert.Equal(t, domain.DefaultSettings(), resp.Organization.Settings)

	var departments []departmentdomain.Department
	require.NoError(t, conn.Order("created_at ASC").Find(&departments).Error)
	require.Len(t, departments, 5)
	assert.Equal(t, "Engineering", departments[0].Name)
	assert.Equal(t, float64(50000), departments[0].Budget)
	assert.Equal(t, "Finance", departments[4].Name)

	profile, err := svc.ResolveProfile(context.Background(), userID, "")
	require.NoError(t, err)
	assert.Equal(t, resp.Organization.ID, profile.OrgID.String())
	assert.True(t, profile.IsAdmin())
	assert.Equal(t, "owner@acme.com", profile.Email)
}

func TestCreateOrganizationRejectsTakenDomain(t *testing.T) {
	svc, _, node := setupOrganizationService(t)

	_, err := svc.Create(context.Background(), node.Generate(), domain.CreateOrganizationRequest{Name: "One", Domain: "shared.io"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), node.Generate(), domain.CreateOrganizationRequest{Name: "Two", Domain: "SHARED.io"})
	assert.ErrorIs(t, err, domain.ErrDomainTaken)

	_, err = svc.Create(context.Background(), node.Generate(), domain.CreateOrganizationRequest{Name: "Three", Domain: "not a domain"})
	assert.ErrorIs(t, err, domain.ErrInvalidDomain)
}

func TestResolveProfileWithoutMembership(t *testing.T) {
	svc, _, node := setupOrganizationService(t)

	_, err := svc.ResolveProfile(context.Background(), node.Generate(), "")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	owner := node.Generate()
	created, err := svc.Create(context.Background(), owner, domain.CreateOrganizationRequest{Name: "Hinted"})
	require.NoError(t, err)

	_, err = svc.ResolveProfile(context.Background(), owner, node.Generate().String())
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	profile, err := svc.ResolveProfile(context.Background(), owner, created.Organization.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Organization.ID, profile.OrgID.String())
}

func TestUpdateSettingsRequiresAdmin(t *testing.T) {
	svc, _, node := setupOrganizationService(t)

	created, err := svc.Create(context.Background(), node.Generate(), domain.CreateOrganizationRequest{Name: "Settings Co"})
	require.NoError(t, err)
	orgID, err := snowflake.ParseString(created.Organization.ID)
	require.NoError(t, err)

	currency := "eur"
	req := domain.UpdateSettingsRequest{Currency: &currency}

	memberCtx := orgcontext.WithRole(orgcontext.WithOrgID(context.Background(), int64(orgID)), domain.RoleManager)
	_, err = svc.UpdateSettings(memberCtx, req)
	assert.ErrorIs(t, err, domain.ErrAdminRequired)

	adminCtx := orgcontext.WithRole(orgcontext.WithOrgID(context.Background(), int64(orgID)), "ADMIN")
	updated, err := svc.UpdateSettings(adminCtx, req)
	require.NoError(t, err)
	assert.Equal(t, "EUR", updated.Settings.Currency)
	assert.Equal(t, "UTC", updated.Settings.Timezone)

	current, err := svc.GetCurrent(adminCtx)
	require.NoError(t, err)
	assert.Equal(t, "EUR", current.Organization.Settings.Currency)
	assert.Equal(t, domain.RoleAdmin, current.Role)

	badZone := "Mars/Olympus"
	_, err = svc.UpdateSettings(adminCtx, domain.UpdateSettingsRequest{Timezone: &badZone})
	assert.ErrorIs(t, err, domain.ErrInvalidTimezone)
}

func TestListOrganizationIDs(t *testing.T) {
	svc, _, node := setupOrganizationService(t)

	for _, name := range []string{"A", "B"} {
		_, err := svc.Create(context.Background(), node.Generate(), domain.CreateOrganizationRequest{Name: name})
		require.NoError(t, err)
	}

	ids, err := svc.ListOrganizationIDs(context.Background())
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}
