package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/almk-dev/nadac/pkg/contracts/domain"
)

// CSVHeaders are the columns of a CSV export
var CSVHeaders = []string{"direction", "rank", "change", "description"}

// CSVExporter writes one row per ranked line, increases first
type CSVExporter struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// NewCSVExporter creates a CSV exporter that writes a BOM
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{BOMPrefix: true}
}

// Format implements Exporter
func (e *CSVExporter) Format() domain.ReportFormat {
	return domain.ReportFormatCSV
}

// Write implements Exporter
func (e *CSVExporter) Write(w io.Writer, report *domain.PriceChangeReport) error {
	if e.BOMPrefix {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(CSVHeaders); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for _, direction := range []domain.Direction{domain.DirectionIncrease, domain.DirectionDecrease} {
		for _, line := range report.Section(direction) {
			record := []string{
				string(line.Direction),
				strconv.Itoa(line.Rank),
				signedAmount(line),
				line.Description,
			}
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("failed to write record %s/%d: %w", direction, line.Rank, err)
			}
		}
	}

	writer.Flush()
	return writer.Error()
}
