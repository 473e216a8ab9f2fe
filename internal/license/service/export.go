package service

import (
	"context"
	"io"

	"github.com/smallbiznis/seatwise/internal/license/domain"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const exportSheet = "Licenses"

var exportHeaders = []string{
	"Name", "Vendor", "Category", "Type", "Department", "Total Seats", "Used Seats",
	"Utilization %", "Cost per Seat", "Total Cost", "Billing Cycle", "Renewal Date",
	"Days Until Renewal", "Status",
}

func (s *Service) Export(ctx context.Context, req domain.ListRequest, w io.Writer) error {
	items, err := s.List(ctx, req)
	if err != nil {
		return err
	}
	departments, err := s.departments.NameIndex(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.log.Warn("failed to close workbook", zap.Error(err))
		}
	}()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeaders); err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(exportSheet, "A1", lastHeader, headerStyle); err != nil {
		return err
	}

	for i, item := range items {
		department := ""
		if item.License.DepartmentID != nil {
			department = departments[*item.License.DepartmentID]
		}
		row := []any{
			item.Name,
			item.Vendor,
			item.Category,
			item.LicenseType,
			department,
			item.TotalSeats,
			item.UsedSeats,
			item.UtilizationRate,
			item.CostPerSeat,
			item.TotalCost,
			item.BillingCycle,
			item.RenewalDate.Format("2006-01-02"),
			item.DaysUntilRenewal,
			item.Status,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return err
		}
	}

	s.log.Debug("licenses exported", zap.Int("rows", len(items)))
	return f.Write(w)
}
