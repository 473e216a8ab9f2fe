package authorization

import (
	"context"
	"testing"

	"github.com/smallbiznis/seatwise/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memberRow struct {
	OrgID  int64  `gorm:"column:org_id;primaryKey"`
	UserID int64  `gorm:"column:user_id;primaryKey"`
	Role   string `gorm:"column:role"`
}

func (memberRow) TableName() string { return "organization_members" }

func newTestService(t *testing.T) Service {
	t.Helper()

	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := conn.AutoMigrate(&memberRow{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	rows := []memberRow{
		{OrgID: 10, UserID: 1, Role: "admin"},
		{OrgID: 10, UserID: 2, Role: "user"},
		{OrgID: 10, UserID: 3, Role: "manager"},
	}
	if err := conn.Create(&rows).Error; err != nil {
		t.Fatalf("failed to seed members: %v", err)
	}

	enforcer, err := NewEnforcer(conn)
	if err != nil {
		t.Fatalf("failed to build enforcer: %v", err)
	}
	return NewService(Params{DB: conn, Log: zap.NewNop(), Enforcer: enforcer})
}

func TestAuthorizeAdminOnlyActions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Authorize(ctx, "user:1", "10", ObjectOrganization, ActionSettingsUpdate))
	require.NoError(t, svc.Authorize(ctx, "user:1", "10", ObjectBadge, ActionBadgeAward))

	require.ErrorIs(t, svc.Authorize(ctx, "user:2", "10", ObjectOrganization, ActionSettingsUpdate), ErrForbidden)
	require.ErrorIs(t, svc.Authorize(ctx, "user:3", "10", ObjectBadge, ActionBadgeAward), ErrForbidden)
}

func TestAuthorizeMemberActions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Authorize(ctx, "user:2", "10", ObjectInsight, ActionInsightGenerate))
	require.NoError(t, svc.Authorize(ctx, "user:3", "10", ObjectLicense, ActionLicenseManage))
	require.NoError(t, svc.Authorize(ctx, ActorSystem, "10", ObjectImpact, ActionImpactCalculate))
	require.ErrorIs(t, svc.Authorize(ctx, ActorSystem, "10", ObjectOrganization, ActionSettingsUpdate), ErrForbidden)
}

func TestAuthorizeRejectsNonMembers(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.ErrorIs(t, svc.Authorize(ctx, "user:1", "11", ObjectInsight, ActionInsightGenerate), ErrForbidden)
	require.ErrorIs(t, svc.Authorize(ctx, "api_key:1", "10", ObjectInsight, ActionInsightGenerate), ErrInvalidActor)
	require.ErrorIs(t, svc.Authorize(ctx, "user:1", "", ObjectInsight, ActionInsightGenerate), ErrInvalidOrganization)
	require.ErrorIs(t, svc.Authorize(ctx, "user:1", "10", "", ActionInsightGenerate), ErrInvalidObject)
}
