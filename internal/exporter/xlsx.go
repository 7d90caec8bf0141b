package exporter

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/almk-dev/nadac/pkg/contracts/domain"
)

// SummarySheet holds the report parameters and scan statistics
const SummarySheet = "Summary"

// XLSXExporter writes a workbook with one sheet per direction plus a summary
type XLSXExporter struct{}

// Format implements Exporter
func (XLSXExporter) Format() domain.ReportFormat {
	return domain.ReportFormatExcel
}

// Write implements Exporter
func (XLSXExporter) Write(w io.Writer, report *domain.PriceChangeReport) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
	if err != nil {
		return fmt.Errorf("failed to create amount style: %w", err)
	}

	first := true
	for _, direction := range []domain.Direction{domain.DirectionIncrease, domain.DirectionDecrease} {
		sheet := sectionTitle(direction)
		if first {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
			first = false
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
		if err := writeSection(f, sheet, report.Section(direction), headerStyle, amountStyle); err != nil {
			return err
		}
	}

	if err := writeSummary(f, report, headerStyle); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSection(f *excelize.File, sheet string, lines []domain.PriceChangeLine, headerStyle, amountStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &[]interface{}{"Rank", "Change", "Description"}); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	if err := f.SetCellStyle(sheet, "A1", "C1", headerStyle); err != nil {
		return err
	}

	for i, line := range lines {
		amount, err := decimal.NewFromString(signedAmount(line))
		if err != nil {
			return fmt.Errorf("line %d of %s: %w", line.Rank, sheet, err)
		}
		value, _ := amount.Float64()

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &[]interface{}{line.Rank, value, line.Description}); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, line.Rank, err)
		}
	}

	if len(lines) > 0 {
		last, err := excelize.CoordinatesToCellName(2, len(lines)+1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "B2", last, amountStyle); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "C", "C", 60)
}

func writeSummary(f *excelize.File, report *domain.PriceChangeReport, headerStyle int) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Field", "Value"},
		{"Report ID", report.ID},
		{"Year", report.Year},
		{"Count", report.Count},
		{"Source", report.Source},
		{"Generated At", report.GeneratedAt.UTC().Format("2006-01-02 15:04:05")},
		{"Rows Read", report.Stats.RowsRead},
		{"Rows In Year", report.Stats.RowsInYear},
		{"Increases", report.Stats.Increases},
		{"Decreases", report.Stats.Decreases},
		{"Unchanged", report.Stats.Unchanged},
		{"Duplicates Dropped", report.Stats.DuplicatesDropped},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i+1, err)
		}
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "B1", headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(SummarySheet, "A", "A", 20)
}
