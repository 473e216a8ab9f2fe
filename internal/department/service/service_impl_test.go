package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/seatwise/internal/clock"
	"github.com/smallbiznis/seatwise/internal/department/domain"
	"github.com/smallbiznis/seatwise/internal/orgcontext"
	"github.com/smallbiznis/seatwise/pkg/db"
	"github.com/smallbiznis/seatwise/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupDepartmentService(t *testing.T) (domain.Service, *snowflake.Node) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Department{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		Log:   zaptest.NewLogger(t),
		GenID: node,
		Repo:  repository.ProvideStore[domain.Department](conn),
		Clock: clock.NewFakeClock(time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)),
	})
	return svc, node
}

func TestCreateAndListDepartments(t *testing.T) {
	svc, node := setupDepartmentService(t)
	ctx := orgcontext.WithOrgID(context.Background(), int64(node.Generate()))

	for _, name := range []string{"Engineering", "Marketing"} {
		_, err := svc.Create(ctx, domain.CreateRequest{Name: name, Budget: decimal.RequireFromString("1000.555")})
		require.NoError(t, err)
	}

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Engineering", items[0].Name)
	assert.Equal(t, "Marketing", items[1].Name)
	assert.Equal(t, 1000.56, items[0].Budget)
}

func TestDepartmentsAreScopedToOrganization(t *testing.T) {
	svc, node := setupDepartmentService(t)
	orgA := orgcontext.WithOrgID(context.Background(), int64(node.Generate()))
	orgB := orgcontext.WithOrgID(context.Background(), int64(node.Generate()))

	created, err := svc.Create(orgA, domain.CreateRequest{Name: "Sales"})
	require.NoError(t, err)

	_, err = svc.Get(orgB, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(orgB, created.ID), domain.ErrNotFound)

	items, err := svc.List(orgB)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestUpdateDepartment(t *testing.T) {
	svc, node := setupDepartmentService(t)
	ctx := orgcontext.WithOrgID(context.Background(), int64(node.Generate()))

	created, err := svc.Create(ctx, domain.CreateRequest{Name: "HR", Budget: decimal.NewFromInt(15000)})
	require.NoError(t, err)

	name := "People"
	budget := decimal.NewFromInt(18000)
	email := " lead@example.com "
	updated, err := svc.Update(ctx, domain.UpdateRequest{ID: created.ID, Name: &name, Budget: &budget, ManagerEmail: &email})
	require.NoError(t, err)
	assert.Equal(t, "People", updated.Name)
	assert.Equal(t, float64(18000), updated.Budget)
	require.NotNil(t, updated.ManagerEmail)
	assert.Equal(t, "lead@example.com", *updated.ManagerEmail)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "People", got.Name)

	blank := "  "
	_, err = svc.Update(ctx, domain.UpdateRequest{ID: created.ID, Name: &blank})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestCreateDepartmentValidation(t *testing.T) {
	svc, node := setupDepartmentService(t)

	_, err := svc.Create(context.Background(), domain.CreateRequest{Name: "Ops"})
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)

	ctx := orgcontext.WithOrgID(context.Background(), int64(node.Generate()))
	_, err = svc.Create(ctx, domain.CreateRequest{Name: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateRequest{Name: "Ops", Budget: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidBudget)

	_, err = svc.Get(ctx, "not-an-id")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}
