package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/seatwise/internal/clock"
	departmentdomain "github.com/smallbiznis/seatwise/internal/department/domain"
	"github.com/smallbiznis/seatwise/internal/license/domain"
	"github.com/smallbiznis/seatwise/internal/orgcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	Departments departmentdomain.Service
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	departments departmentdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("license.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		departments: p.Departments,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	filter := domain.ListFilter{
		Category: strings.TrimSpace(req.Category),
		Status:   strings.TrimSpace(req.Status),
	}
	if filter.Status != "" && !domain.ValidStatus(filter.Status) {
		return nil, domain.ErrInvalidStatus
	}

	items, err := s.repo.List(ctx, s.db, orgID, filter)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	resp := make([]domain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, domain.Enrich(item, now))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	license, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := domain.Enrich(license, s.clock.Now())
	return &resp, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	license := &domain.License{
		ID:           s.genID.Generate(),
		OrgID:        orgID,
		Vendor:       strings.TrimSpace(req.Vendor),
		Name:         strings.TrimSpace(req.Name),
		Category:     strings.TrimSpace(req.Category),
		LicenseType:  strings.TrimSpace(req.LicenseType),
		TotalSeats:   req.TotalSeats,
		UsedSeats:    req.UsedSeats,
		BillingCycle: strings.TrimSpace(req.BillingCycle),
		Status:       strings.TrimSpace(req.Status),
		PurchaseDate: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if license.Status == "" {
		license.Status = domain.StatusActive
	}
	if req.CostPerSeat.IsNegative() {
		return nil, domain.ErrInvalidCost
	}
	costPerSeat := req.CostPerSeat.Round(2)
	license.CostPerSeat = costPerSeat.InexactFloat64()
	license.TotalCost = domain.TotalCost(license.TotalSeats, costPerSeat).InexactFloat64()

	if strings.TrimSpace(req.PurchaseDate) != "" {
		if license.PurchaseDate, err = parseDate(req.PurchaseDate); err != nil {
			return nil, err
		}
	}
	if license.RenewalDate, err = parseDate(req.RenewalDate); err != nil {
		return nil, err
	}
	if license.DepartmentID, err = s.resolveDepartment(ctx, orgID, req.DepartmentID); err != nil {
		return nil, err
	}
	if err := validate(license); err != nil {
		return nil, err
	}

	if err := s.repo.Insert(ctx, s.db, license); err != nil {
		return nil, err
	}

	resp := domain.Enrich(license, now)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	license, err := s.find(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Vendor != nil {
		license.Vendor = strings.TrimSpace(*req.Vendor)
	}
	if req.Name != nil {
		license.Name = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		license.Category = strings.TrimSpace(*req.Category)
	}
	if req.LicenseType != nil {
		license.LicenseType = strings.TrimSpace(*req.LicenseType)
	}
	if req.BillingCycle != nil {
		license.BillingCycle = strings.TrimSpace(*req.BillingCycle)
	}
	if req.Status != nil {
		license.Status = strings.TrimSpace(*req.Status)
	}
	if req.UsedSeats != nil {
		license.UsedSeats = *req.UsedSeats
	}

	if req.TotalSeats != nil || req.CostPerSeat != nil {
		costPerSeat := decimal.NewFromFloat(license.CostPerSeat)
		if req.CostPerSeat != nil {
			if req.CostPerSeat.IsNegative() {
				return nil, domain.ErrInvalidCost
			}
			costPerSeat = req.CostPerSeat.Round(2)
		}
		if req.TotalSeats != nil {
			license.TotalSeats = *req.TotalSeats
		}
		license.CostPerSeat = costPerSeat.InexactFloat64()
		license.TotalCost = domain.TotalCost(license.TotalSeats, costPerSeat).InexactFloat64()
	}

	if req.PurchaseDate != nil {
		if license.PurchaseDate, err = parseDate(*req.PurchaseDate); err != nil {
			return nil, err
		}
	}
	if req.RenewalDate != nil {
		if license.RenewalDate, err = parseDate(*req.RenewalDate); err != nil {
			return nil, err
		}
	}
	if req.DepartmentID != nil {
		if license.DepartmentID, err = s.resolveDepartment(ctx, license.OrgID, *req.DepartmentID); err != nil {
			return nil, err
		}
	}
	if err := validate(license); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	license.UpdatedAt = now
	if err := s.repo.Update(ctx, s.db, license); err != nil {
		return nil, err
	}

	resp := domain.Enrich(license, now)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	license, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	affected, err := s.repo.Delete(ctx, s.db, license.OrgID, license.ID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Service) RecordUsage(ctx context.Context, req domain.RecordUsageRequest) (*domain.UsageRecord, error) {
	license, err := s.find(ctx, req.LicenseID)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.UserEmail))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidEmail
	}
	lastActive, err := parseDate(req.LastActiveDate)
	if err != nil {
		return nil, err
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	record := &domain.UsageRecord{
		ID:             s.genID.Generate(),
		OrgID:          license.OrgID,
		LicenseID:      license.ID,
		UserEmail:      email,
		LastActiveDate: lastActive,
		UsageHours:     req.UsageHours,
		IsActive:       isActive,
		CreatedAt:      s.clock.Now(),
	}
	if err := s.repo.InsertUsage(ctx, s.db, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Service) ListUsage(ctx context.Context, licenseID string) ([]domain.UsageRecord, error) {
	license, err := s.find(ctx, licenseID)
	if err != nil {
		return nil, err
	}
	records, err := s.repo.ListUsage(ctx, s.db, license.OrgID, license.ID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.UsageRecord{}
	}
	return records, nil
}

func (s *Service) find(ctx context.Context, id string) (*domain.License, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	licenseID, err := domain.ParseID(strings.TrimSpace(id))
	if err != nil || licenseID == 0 {
		return nil, domain.ErrInvalidID
	}
	license, err := s.repo.FindByID(ctx, s.db, orgID, licenseID)
	if err != nil {
		return nil, err
	}
	if license == nil {
		return nil, domain.ErrNotFound
	}
	return license, nil
}

func (s *Service) resolveDepartment(ctx context.Context, orgID snowflake.ID, value string) (*snowflake.ID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	departmentID, err := snowflake.ParseString(value)
	if err != nil || departmentID == 0 {
		return nil, domain.ErrInvalidDepartment
	}
	exists, err := s.repo.DepartmentExists(ctx, s.db, orgID, departmentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrInvalidDepartment
	}
	return &departmentID, nil
}

func validate(license *domain.License) error {
	switch {
	case license.Name == "":
		return domain.ErrInvalidName
	case license.Vendor == "":
		return domain.ErrInvalidVendor
	case !domain.ValidLicenseType(license.LicenseType):
		return domain.ErrInvalidLicenseType
	case !domain.ValidBillingCycle(license.BillingCycle):
		return domain.ErrInvalidBillingCycle
	case !domain.ValidStatus(license.Status):
		return domain.ErrInvalidStatus
	case license.TotalSeats < 0 || license.UsedSeats < 0:
		return domain.ErrInvalidSeats
	case license.CostPerSeat < 0:
		return domain.ErrInvalidCost
	}
	return nil
}

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, domain.ErrInvalidDate
}

func orgIDFromContext(ctx context.Context) (snowflake.ID, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, domain.ErrInvalidOrganization
	}
	return orgID, nil
}
