package services

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/almk-dev/nadac/internal/config"
	"github.com/almk-dev/nadac/internal/dataset"
	apperrors "github.com/almk-dev/nadac/internal/errors"
	"github.com/almk-dev/nadac/internal/infrastructure"
	"github.com/almk-dev/nadac/internal/pricechange"
	"github.com/almk-dev/nadac/pkg/contracts/domain"
)

// Report triggers, recorded on spans and metrics
const (
	TriggerCLI      = "cli"
	TriggerHTTP     = "http"
	TriggerSchedule = "schedule"
)

// ReportRequest holds the parameters of one report run
type ReportRequest struct {
	Year    int    `json:"year" validate:"gt=0"`
	Count   int    `json:"count" validate:"gte=0"`
	Trigger string `json:"trigger,omitempty"`
}

// ReportService produces price change reports from the configured dataset
type ReportService struct {
	cfg       config.DatasetConfig
	dataDir   string
	discovery *dataset.Discovery
	generator *pricechange.Generator
	tracer    *ReportTracer
	logger    *slog.Logger
	now       func() time.Time
}

// NewReportService creates a report service. The dataset path, when
// relative, resolves against paths.BaseDir; without a path the newest
// matching file in paths.DataDir is used.
func NewReportService(cfg config.DatasetConfig, paths *config.Paths, tracer *ReportTracer, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = NewReportTracer(nil)
	}
	return &ReportService{
		cfg:       cfg,
		dataDir:   paths.DataDir,
		discovery: dataset.NewDiscovery(paths.BaseDir, cfg.Pattern),
		generator: pricechange.NewGenerator(logger),
		tracer:    tracer,
		logger:    logger.With(slog.String("service", "report")),
		now:       time.Now,
	}
}

// ResolveDataset returns the dataset file a report run would read.
func (s *ReportService) ResolveDataset() (string, error) {
	return s.discovery.Resolve(s.cfg.Path, s.dataDir)
}

// Generate runs one report over the dataset and returns its document form.
func (s *ReportService) Generate(ctx context.Context, req ReportRequest) (*domain.PriceChangeReport, error) {
	if req.Year <= 0 {
		return nil, apperrors.NewInvalidParameterError("year", req.Year, "must be positive")
	}
	if req.Count < 0 {
		return nil, apperrors.NewInvalidParameterError("count", req.Count, "must not be negative")
	}

	ctx = infrastructure.EnsureTraceID(ctx)
	reportID := uuid.New().String()
	start := s.now()

	ctx, span := s.tracer.TraceReport(ctx, reportID, req)
	defer span.End()

	logger := s.logger.With(
		slog.String("report_id", reportID),
		slog.String("trigger", req.Trigger),
	)

	report, source, rows, err := s.run(ctx, req)
	duration := s.now().Sub(start)

	stats := domain.ReportStats{RowsRead: rows}
	if report != nil {
		stats = report.Stats
	}
	s.tracer.RecordCompletion(ctx, span, req, source, stats, duration, err)

	if err != nil {
		logger.ErrorContext(ctx, "report generation failed",
			slog.Int("year", req.Year),
			slog.Int("count", req.Count),
			slog.String("source", source),
			slog.Int64("rows_read", rows),
			slog.String("error", err.Error()))
		return nil, err
	}

	doc := report.Document(reportID, filepath.Base(source), s.now().UTC())
	logger.InfoContext(ctx, "report generated",
		slog.Int("year", req.Year),
		slog.Int("count", req.Count),
		slog.String("source", source),
		slog.Int("increases", len(doc.Increases)),
		slog.Int("decreases", len(doc.Decreases)),
		slog.Int64("rows_read", stats.RowsRead),
		slog.Duration("duration", duration))
	return doc, nil
}

// run opens the dataset and streams it through the generator. rows is the
// number of data rows consumed, reported even when the run fails.
func (s *ReportService) run(ctx context.Context, req ReportRequest) (*pricechange.Report, string, int64, error) {
	path, err := s.ResolveDataset()
	if err != nil {
		return nil, "", 0, err
	}

	rc, err := dataset.Open(path)
	if err != nil {
		return nil, path, 0, err
	}
	defer rc.Close()

	s.logger.DebugContext(ctx, "dataset opened",
		slog.String("path", path),
		slog.String("compression", string(dataset.CompressionOf(rc))))

	dec := dataset.NewDecoder(rc, dataset.DecoderOptions{
		FieldNames: s.cfg.FieldNames,
		SkipHeader: s.cfg.SkipHeader,
		Comma:      s.cfg.Comma(),
	})

	report, err := s.generator.Generate(ctx, dec, req.Year, req.Count)
	return report, path, dec.Row(), err
}
