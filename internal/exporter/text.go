package exporter

import (
	"io"

	"github.com/almk-dev/nadac/pkg/contracts/domain"
)

// TextExporter writes the rendered report unchanged
type TextExporter struct{}

// Format implements Exporter
func (TextExporter) Format() domain.ReportFormat {
	return domain.ReportFormatText
}

// Write implements Exporter
func (TextExporter) Write(w io.Writer, report *domain.PriceChangeReport) error {
	_, err := io.WriteString(w, report.Text)
	return err
}
