package exporter

import (
	"encoding/json"
	"io"

	"github.com/almk-dev/nadac/pkg/contracts/domain"
)

// JSONExporter writes the structured report document
type JSONExporter struct {
	Indent string
}

// Format implements Exporter
func (e JSONExporter) Format() domain.ReportFormat {
	return domain.ReportFormatJSON
}

// Write implements Exporter
func (e JSONExporter) Write(w io.Writer, report *domain.PriceChangeReport) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if e.Indent != "" {
		enc.SetIndent("", e.Indent)
	}
	return enc.Encode(report)
}
