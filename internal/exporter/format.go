package exporter

import (
	"path/filepath"
	"strings"

	apperrors "github.com/almk-dev/nadac/internal/errors"
	"github.com/almk-dev/nadac/pkg/contracts/domain"
)

// FormatFromPath picks the report format from a file extension.
func FormatFromPath(path string) (domain.ReportFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".text":
		return domain.ReportFormatText, nil
	case ".csv":
		return domain.ReportFormatCSV, nil
	case ".json":
		return domain.ReportFormatJSON, nil
	case ".xlsx":
		return domain.ReportFormatExcel, nil
	default:
		return "", apperrors.NewInvalidParameterError("output", path,
			"unsupported extension (want .txt, .csv, .json or .xlsx)")
	}
}

// signedAmount formats a line's change with its direction sign, e.g. -5.69
func signedAmount(line domain.PriceChangeLine) string {
	return line.Direction.Sign() + line.Amount
}

// sectionTitle is the display name of a report section
func sectionTitle(d domain.Direction) string {
	if d == domain.DirectionDecrease {
		return "Decreases"
	}
	return "Increases"
}
