package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/almk-dev/nadac/internal/config"
	apperrors "github.com/almk-dev/nadac/internal/errors"
	"github.com/almk-dev/nadac/pkg/contracts/domain"
)

// Exporter serialises a report in one format
type Exporter interface {
	Format() domain.ReportFormat
	Write(w io.Writer, report *domain.PriceChangeReport) error
}

// ForFormat returns the exporter for a report format
func ForFormat(format domain.ReportFormat) (Exporter, error) {
	switch format {
	case domain.ReportFormatText:
		return TextExporter{}, nil
	case domain.ReportFormatCSV:
		return NewCSVExporter(), nil
	case domain.ReportFormatJSON:
		return JSONExporter{Indent: "  "}, nil
	case domain.ReportFormatExcel:
		return XLSXExporter{}, nil
	default:
		return nil, apperrors.NewInvalidParameterError("format", format, "unsupported report format")
	}
}

// Writer exports reports to files, choosing the format by extension
type Writer struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewWriter creates a file writer. Relative paths resolve under the reports
// directory when paths is set, otherwise against the working directory.
func NewWriter(paths *config.Paths, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{paths: paths, logger: logger.With(slog.String("component", "exporter"))}
}

// Export writes report to path and returns the resolved file path.
func (w *Writer) Export(path string, report *domain.PriceChangeReport) (string, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return "", err
	}
	exp, err := ForFormat(format)
	if err != nil {
		return "", err
	}

	fullPath := w.resolvePath(path)
	if err := writeAtomic(fullPath, func(out io.Writer) error {
		return exp.Write(out, report)
	}); err != nil {
		return "", apperrors.NewExportError(fullPath, err)
	}

	w.logger.Info("report exported",
		slog.String("report_id", report.ID),
		slog.String("format", string(format)),
		slog.String("path", fullPath),
		slog.Int("increases", len(report.Increases)),
		slog.Int("decreases", len(report.Decreases)))
	return fullPath, nil
}

// ExportAll writes the report to every path, stopping at the first failure.
func (w *Writer) ExportAll(paths []string, report *domain.PriceChangeReport) ([]string, error) {
	written := make([]string, 0, len(paths))
	for _, p := range paths {
		full, err := w.Export(p, report)
		if err != nil {
			return written, err
		}
		written = append(written, full)
	}
	return written, nil
}

// resolvePath resolves a relative path to the reports directory
func (w *Writer) resolvePath(path string) string {
	if filepath.IsAbs(path) || w.paths == nil {
		return filepath.Clean(path)
	}
	return w.paths.GetReportPath(path)
}

// writeAtomic writes to a temporary sibling and renames it over path, so
// readers never see a partial report.
func writeAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
