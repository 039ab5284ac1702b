package stock

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var exportColumns = []string{"id", "item_type", "item_id", "movement_type", "quantity", "reference_type", "reference_id", "notes", "created_by", "created_at"}

// ExportLogs renders the filtered ledger as an xlsx workbook.
func (s *Service) ExportLogs(ctx context.Context, filter LogFilter) (*excelize.File, error) {
	filter.Page = 1
	if filter.PerPage <= 0 {
		filter.PerPage = 10000
	}
	logs, _, err := s.ListLogs(ctx, filter)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	const sheet = "Stock Logs"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	_ = f.DeleteSheet("Sheet1")

	title := cases.Title(language.English)
	for col, name := range exportColumns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		header := title.String(strings.ReplaceAll(name, "_", " "))
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}

	for i, l := range logs {
		row := i + 2
		values := []any{l.ID, string(l.ItemType), l.ItemID, string(l.MovementType), l.Quantity, string(l.ReferenceType), l.ReferenceID, l.Notes, l.CreatedBy, l.CreatedAt.Format("2006-01-02 15:04:05")}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	if len(logs) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(exportColumns), len(logs)+1)
		_ = f.AutoFilter(sheet, fmt.Sprintf("A1:%s", last), nil)
	}
	return f, nil
}
