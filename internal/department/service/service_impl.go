package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/seatwise/internal/clock"
	"github.com/smallbiznis/seatwise/internal/department/domain"
	"github.com/smallbiznis/seatwise/internal/orgcontext"
	"github.com/smallbiznis/seatwise/pkg/db/option"
	"github.com/smallbiznis/seatwise/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  repository.Repository[domain.Department]
	Clock clock.Clock
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	repo  repository.Repository[domain.Department]
	clock clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		log:   p.Log.Named("department.service"),
		genID: p.GenID,
		repo:  p.Repo,
		clock: p.Clock,
	}
}

func (s *Service) List(ctx context.Context) ([]domain.Response, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.Find(ctx, &domain.Department{OrgID: orgID}, option.WithSortBy("created_at ASC, id ASC"))
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, toResponse(item))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if req.Budget.IsNegative() {
		return nil, domain.ErrInvalidBudget
	}

	now := s.clock.Now()
	item := &domain.Department{
		ID:           s.genID.Generate(),
		OrgID:        orgID,
		Name:         name,
		Budget:       money(req.Budget),
		ManagerEmail: trimOptional(req.ManagerEmail),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	item, err := s.find(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		item.Name = name
		fields["name"] = name
	}
	if req.Budget != nil {
		if req.Budget.IsNegative() {
			return nil, domain.ErrInvalidBudget
		}
		item.Budget = money(*req.Budget)
		fields["budget"] = item.Budget
	}
	if req.ManagerEmail != nil {
		item.ManagerEmail = trimOptional(req.ManagerEmail)
		fields["manager_email"] = item.ManagerEmail
	}
	if len(fields) == 0 {
		resp := toResponse(item)
		return &resp, nil
	}

	item.UpdatedAt = s.clock.Now()
	fields["updated_at"] = item.UpdatedAt
	if _, err := s.repo.Update(ctx, item.OrgID, item.ID, fields); err != nil {
		return nil, err
	}

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	item, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	_, err = s.repo.Delete(ctx, item.OrgID, item.ID)
	return err
}

func (s *Service) NameIndex(ctx context.Context) (map[snowflake.ID]string, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.Find(ctx, &domain.Department{OrgID: orgID})
	if err != nil {
		return nil, err
	}
	index := make(map[snowflake.ID]string, len(items))
	for _, item := range items {
		index[item.ID] = item.Name
	}
	return index, nil
}

func (s *Service) find(ctx context.Context, id string) (*domain.Department, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	deptID, err := domain.ParseID(strings.TrimSpace(id))
	if err != nil || deptID == 0 {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindOne(ctx, &domain.Department{ID: deptID, OrgID: orgID})
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (s *Service) orgIDFromContext(ctx context.Context) (snowflake.ID, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, domain.ErrInvalidOrganization
	}
	return orgID, nil
}

func toResponse(item *domain.Department) domain.Response {
	return domain.Response{
		ID:             item.ID.String(),
		OrganizationID: item.OrgID.String(),
		Name:           item.Name,
		Budget:         item.Budget,
		ManagerEmail:   item.ManagerEmail,
		CreatedAt:      item.CreatedAt,
		UpdatedAt:      item.UpdatedAt,
	}
}

func money(value decimal.Decimal) float64 {
	return value.Round(2).InexactFloat64()
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
