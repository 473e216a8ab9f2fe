package authorization

import (
	"context"
	_ "embed"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectOrganization = "organization"
	ObjectBadge        = "badge"
	ObjectInsight      = "insight"
	ObjectScore        = "score"
	ObjectImpact       = "impact"
	ObjectLicense      = "license"
	ObjectDepartment   = "department"
)

const (
	ActionSettingsUpdate   = "settings.update"
	ActionBadgeAward       = "badge.award"
	ActionInsightGenerate  = "insight.generate"
	ActionScoreCalculate   = "score.calculate"
	ActionImpactCalculate  = "impact.calculate"
	ActionLicenseManage    = "license.manage"
	ActionDepartmentManage = "department.manage"
)

// ActorSystem is the actor used by background jobs.
const ActorSystem = "system"

const (
	roleSystem      = "role:system"
	userActorPrefix = "user:"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		db:       p.DB,
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor string, orgID string, object string, action string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrInvalidActor
	}
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return ErrInvalidOrganization
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	roleName, err := s.resolveRole(ctx, actor, orgID)
	if err != nil {
		return err
	}

	domain := "org:" + orgID
	if err := s.ensureGrouping(actor, roleName, domain); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(actor, domain, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Info("authorization denied",
			zap.String("actor", actor),
			zap.String("org_id", orgID),
			zap.String("object", object),
			zap.String("action", action),
			zap.String("role", roleName),
		)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) resolveRole(ctx context.Context, actor string, orgID string) (string, error) {
	if actor == ActorSystem {
		return roleSystem, nil
	}
	if !strings.HasPrefix(actor, userActorPrefix) {
		return "", ErrInvalidActor
	}
	userID, err := snowflake.ParseString(strings.TrimPrefix(actor, userActorPrefix))
	if err != nil || userID == 0 {
		return "", ErrInvalidActor
	}
	parsedOrgID, err := snowflake.ParseString(orgID)
	if err != nil || parsedOrgID == 0 {
		return "", ErrInvalidOrganization
	}
	role, err := s.roleForUser(ctx, parsedOrgID, userID)
	if err != nil {
		return "", err
	}
	return "role:" + strings.ToLower(role), nil
}

func (s *ServiceImpl) roleForUser(ctx context.Context, orgID snowflake.ID, userID snowflake.ID) (string, error) {
	var row struct {
		Role string `gorm:"column:role"`
	}
	if err := s.db.WithContext(ctx).Raw(
		`SELECT role
		 FROM organization_members
		 WHERE org_id = ? AND user_id = ?
		 LIMIT 1`,
		orgID,
		userID,
	).Scan(&row).Error; err != nil {
		return "", err
	}

	role := strings.TrimSpace(row.Role)
	if role == "" {
		return "", ErrForbidden
	}
	return role, nil
}

// ensureGrouping keeps exactly one role link per (subject, domain) so role changes take effect.
func (s *ServiceImpl) ensureGrouping(subject string, roleName string, domain string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject, "", domain)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 || rule[1] == roleName {
			continue
		}
		params := make([]interface{}, 0, len(rule))
		for _, value := range rule {
			params = append(params, value)
		}
		if _, err := s.enforcer.RemoveGroupingPolicy(params...); err != nil {
			return err
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName, domain)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName, domain)
	return err
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	memberActions := [][2]string{
		{ObjectInsight, ActionInsightGenerate},
		{ObjectScore, ActionScoreCalculate},
		{ObjectImpact, ActionImpactCalculate},
		{ObjectLicense, ActionLicenseManage},
		{ObjectDepartment, ActionDepartmentManage},
	}
	adminOnly := [][2]string{
		{ObjectOrganization, ActionSettingsUpdate},
		{ObjectBadge, ActionBadgeAward},
	}

	var policies [][]string
	for _, role := range []string{"role:admin", "role:manager", "role:user"} {
		for _, rule := range memberActions {
			policies = append(policies, []string{role, rule[0], rule[1]})
		}
	}
	for _, rule := range adminOnly {
		policies = append(policies, []string{"role:admin", rule[0], rule[1]})
	}
	// The scheduler recomputes derived metrics only.
	policies = append(policies,
		[]string{roleSystem, ObjectInsight, ActionInsightGenerate},
		[]string{roleSystem, ObjectScore, ActionScoreCalculate},
		[]string{roleSystem, ObjectImpact, ActionImpactCalculate},
	)

	for _, policy := range policies {
		has, err := enforcer.HasPolicy(policy)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
