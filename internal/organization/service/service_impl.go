package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/seatwise/internal/clock"
	departmentdomain "github.com/smallbiznis/seatwise/internal/department/domain"
	"github.com/smallbiznis/seatwise/internal/organization/domain"
	"github.com/smallbiznis/seatwise/internal/orgcontext"
	"github.com/smallbiznis/seatwise/pkg/db"
	"github.com/smallbiznis/seatwise/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	Departments repository.Repository[departmentdomain.Department]
}

type service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	departments repository.Repository[departmentdomain.Department]
}

func NewService(p Params) domain.Service {
	return &service{
		db:          p.DB,
		log:         p.Log.Named("organization.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		departments: p.Departments,
	}
}

func (s *service) Create(ctx context.Context, userID snowflake.ID, req domain.CreateOrganizationRequest) (*domain.CurrentOrganizationResponse, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	var orgDomain *string
	if value := strings.ToLower(strings.TrimSpace(req.Domain)); value != "" {
		if strings.ContainsAny(value, " /@") || !strings.Contains(value, ".") {
			return nil, domain.ErrInvalidDomain
		}
		taken, err := s.repo.DomainExists(ctx, value)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domain.ErrDomainTaken
		}
		orgDomain = &value
	}

	now := s.clock.Now()
	org := domain.Organization{
		ID:        s.genID.Generate(),
		Name:      name,
		Slug:      slug.Make(name),
		Domain:    orgDomain,
		Settings:  datatypes.NewJSONType(domain.DefaultSettings()),
		CreatedAt: now,
		UpdatedAt: now,
	}
	member := domain.OrganizationMember{
		ID:        s.genID.Generate(),
		OrgID:     org.ID,
		UserID:    userID,
		Role:      domain.RoleAdmin,
		Email:     strings.ToLower(strings.TrimSpace(req.OwnerEmail)),
		FullName:  strings.TrimSpace(req.OwnerFullName),
		CreatedAt: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateOrganization(ctx, org); err != nil {
			return err
		}
		if err := repo.AddMember(ctx, member); err != nil {
			return err
		}
		return s.departments.WithTrx(tx).BatchCreate(ctx, s.sampleDepartments(org.ID, now))
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDomainTaken
		}
		return nil, err
	}

	s.log.Info("organization created",
		zap.String("org_id", org.ID.String()),
		zap.String("slug", org.Slug),
		zap.String("user_id", userID.String()),
	)

	return &domain.CurrentOrganizationResponse{
		Organization: toResponse(&org),
		Role:         member.Role,
	}, nil
}

func (s *service) GetCurrent(ctx context.Context) (*domain.CurrentOrganizationResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	org, err := s.repo.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}

	return &domain.CurrentOrganizationResponse{
		Organization: toResponse(org),
		Role:         orgcontext.RoleFromContext(ctx),
	}, nil
}

func (s *service) UpdateSettings(ctx context.Context, req domain.UpdateSettingsRequest) (*domain.OrganizationResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if orgcontext.RoleFromContext(ctx) != domain.RoleAdmin {
		return nil, domain.ErrAdminRequired
	}

	org, err := s.repo.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}

	settings := org.Settings.Data()
	if req.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*req.Currency))
		if len(currency) != 3 {
			return nil, domain.ErrInvalidCurrency
		}
		settings.Currency = currency
	}
	if req.Timezone != nil {
		timezone := strings.TrimSpace(*req.Timezone)
		if _, err := time.LoadLocation(timezone); err != nil || timezone == "" {
			return nil, domain.ErrInvalidTimezone
		}
		settings.Timezone = timezone
	}
	if req.AlertThresholds != nil {
		thresholds := *req.AlertThresholds
		if thresholds.UnusedDays < 0 || thresholds.RenewalDays < 0 || thresholds.OverusagePercent < 0 {
			return nil, domain.ErrInvalidThresholds
		}
		settings.AlertThresholds = thresholds
	}

	if err := s.repo.UpdateSettings(ctx, orgID, settings); err != nil {
		return nil, err
	}

	org.Settings = datatypes.NewJSONType(settings)
	org.UpdatedAt = s.clock.Now()
	resp := toResponse(org)
	return &resp, nil
}

func (s *service) ResolveProfile(ctx context.Context, userID snowflake.ID, orgHint string) (*domain.Profile, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	var orgID snowflake.ID
	if hint := strings.TrimSpace(orgHint); hint != "" {
		parsed, err := snowflake.ParseString(hint)
		if err != nil || parsed == 0 {
			return nil, domain.ErrInvalidOrganization
		}
		orgID = parsed
	}

	member, err := s.repo.FindMember(ctx, userID, orgID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, domain.ErrProfileNotFound
	}

	return &domain.Profile{
		ID:           member.ID,
		OrgID:        member.OrgID,
		UserID:       member.UserID,
		Role:         strings.ToLower(member.Role),
		Email:        member.Email,
		FullName:     member.FullName,
		DepartmentID: member.DepartmentID,
	}, nil
}

func (s *service) ListOrganizationIDs(ctx context.Context) ([]snowflake.ID, error) {
	return s.repo.ListOrganizationIDs(ctx)
}

func (s *service) sampleDepartments(orgID snowflake.ID, now time.Time) []*departmentdomain.Department {
	items := make([]*departmentdomain.Department, 0, len(departmentdomain.DefaultBudgets))
	for i, def := range departmentdomain.DefaultBudgets {
		// Distinct timestamps keep list order equal to seed order.
		createdAt := now.Add(time.Duration(i) * time.Millisecond)
		items = append(items, &departmentdomain.Department{
			ID:        s.genID.Generate(),
			OrgID:     orgID,
			Name:      def.Name,
			Budget:    def.Budget,
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		})
	}
	return items
}

func toResponse(org *domain.Organization) domain.OrganizationResponse {
	return domain.OrganizationResponse{
		ID:        org.ID.String(),
		Name:      org.Name,
		Slug:      org.Slug,
		Domain:    org.Domain,
		Settings:  org.Settings.Data(),
		CreatedAt: org.CreatedAt,
		UpdatedAt: org.UpdatedAt,
	}
}
