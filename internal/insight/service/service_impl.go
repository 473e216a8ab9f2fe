package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/seatwise/internal/clock"
	"github.com/smallbiznis/seatwise/internal/config"
	"github.com/smallbiznis/seatwise/internal/insight/domain"
	licensedomain "github.com/smallbiznis/seatwise/internal/license/domain"
	"github.com/smallbiznis/seatwise/internal/observability/metrics"
	"github.com/smallbiznis/seatwise/internal/orgcontext"
	"github.com/smallbiznis/seatwise/internal/runlock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Config   config.Config
	Repo     domain.Repository
	Licenses licensedomain.Repository
	Locker   runlock.Locker
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	db                 *gorm.DB
	log                *zap.Logger
	genID              *snowflake.Node
	clock              clock.Clock
	repo               domain.Repository
	licenses           licensedomain.Repository
	locker             runlock.Locker
	metrics            *metrics.Metrics
	suppressDuplicates bool
}

func New(p Params) domain.Service {
	return &Service{
		db:                 p.DB,
		log:                p.Log.Named("insight.service"),
		genID:              p.GenID,
		clock:              p.Clock,
		repo:               p.Repo,
		licenses:           p.Licenses,
		locker:             p.Locker,
		metrics:            p.Metrics,
		suppressDuplicates: p.Config.Insights.SuppressDuplicates,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	filter := domain.ListFilter{
		Type:   strings.TrimSpace(req.Type),
		Status: strings.TrimSpace(req.Status),
		Limit:  req.Limit,
	}
	if filter.Type != "" && !domain.ValidType(filter.Type) {
		return nil, domain.ErrInvalidType
	}
	if filter.Status != "" && !domain.ValidStatus(filter.Status) {
		return nil, domain.ErrInvalidStatus
	}

	items, err := s.repo.List(ctx, s.db, orgID, filter)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, orgID, items)
}

func (s *Service) UpdateStatus(ctx context.Context, req domain.UpdateStatusRequest) (*domain.Response, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	status := strings.TrimSpace(req.Status)
	if !domain.ValidStatus(status) {
		return nil, domain.ErrInvalidStatus
	}
	insightID, err := domain.ParseID(strings.TrimSpace(req.ID))
	if err != nil || insightID == 0 {
		return nil, domain.ErrInvalidID
	}

	insight, err := s.repo.FindByID(ctx, s.db, orgID, insightID)
	if err != nil {
		return nil, err
	}
	if insight == nil {
		return nil, domain.ErrNotFound
	}
	if !domain.CanTransition(insight.Status, status) {
		return nil, domain.ErrInvalidStatusTransition
	}

	now := s.clock.Now()
	updated, err := s.repo.UpdateStatus(ctx, s.db, orgID, insightID, insight.Status, status, now)
	if err != nil {
		return nil, err
	}
	if !updated {
		// Another request changed the status after it was read.
		return nil, domain.ErrInvalidStatusTransition
	}
	s.log.Info("insight status updated",
		zap.String("insight_id", insightID.String()),
		zap.String("from", insight.Status),
		zap.String("to", status),
	)

	insight.Status = status
	insight.UpdatedAt = now
	resp, err := s.enrich(ctx, orgID, []*domain.Insight{insight})
	if err != nil {
		return nil, err
	}
	return &resp[0], nil
}

func (s *Service) enrich(ctx context.Context, orgID snowflake.ID, items []*domain.Insight) ([]domain.Response, error) {
	ids := make([]snowflake.ID, 0, len(items))
	seen := make(map[snowflake.ID]struct{}, len(items))
	for _, item := range items {
		if item.LicenseID == nil {
			continue
		}
		if _, ok := seen[*item.LicenseID]; ok {
			continue
		}
		seen[*item.LicenseID] = struct{}{}
		ids = append(ids, *item.LicenseID)
	}

	licenses, err := s.licenses.FindByIDs(ctx, s.db, orgID, ids)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	byID := make(map[snowflake.ID]*licensedomain.Response, len(licenses))
	for _, license := range licenses {
		enriched := licensedomain.Enrich(license, now)
		byID[license.ID] = &enriched
	}

	resp := make([]domain.Response, 0, len(items))
	for _, item := range items {
		out := toResponse(item)
		if item.LicenseID != nil {
			out.License = byID[*item.LicenseID]
		}
		resp = append(resp, out)
	}
	return resp, nil
}

func toResponse(item *domain.Insight) domain.Response {
	resp := domain.Response{
		ID:               item.ID.String(),
		OrganizationID:   item.OrgID.String(),
		Type:             item.Type,
		Severity:         item.Severity,
		Title:            item.Title,
		Description:      item.Description,
		PotentialSavings: item.PotentialSavings,
		Confidence:       item.Confidence,
		Status:           item.Status,
		Metadata:         map[string]any(item.Metadata),
		CreatedAt:        item.CreatedAt,
		UpdatedAt:        item.UpdatedAt,
	}
	if resp.Metadata == nil {
		resp.Metadata = map[string]any{}
	}
	if item.LicenseID != nil {
		id := item.LicenseID.String()
		resp.LicenseID = &id
	}
	if item.DepartmentID != nil {
		id := item.DepartmentID.String()
		resp.DepartmentID = &id
	}
	return resp
}

func orgIDFromContext(ctx context.Context) (snowflake.ID, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, domain.ErrInvalidOrganization
	}
	return orgID, nil
}
