package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/almk-dev/nadac/internal/infrastructure"
	"github.com/almk-dev/nadac/pkg/contracts/domain"
)

// TracerName is the instrumentation scope of report spans
const TracerName = "github.com/almk-dev/nadac/report"

// ReportTracer provides OpenTelemetry instrumentation for report runs
type ReportTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.BusinessMetrics
}

// NewReportTracer creates a tracer from initialised providers. Nil providers
// give a tracer that records nothing.
func NewReportTracer(providers *infrastructure.OTelProviders) *ReportTracer {
	if providers == nil {
		return &ReportTracer{tracer: noop.NewTracerProvider().Tracer(TracerName)}
	}
	tracer := providers.Tracer
	if providers.TracerProvider != nil {
		tracer = providers.TracerProvider.Tracer(TracerName)
	}
	return &ReportTracer{tracer: tracer, metrics: providers.Metrics}
}

// TraceReport starts the span for one report run
func (rt *ReportTracer) TraceReport(ctx context.Context, reportID string, req ReportRequest) (context.Context, trace.Span) {
	return rt.tracer.Start(ctx, "report.price_changes",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("report.id", reportID),
			attribute.Int("report.year", req.Year),
			attribute.Int("report.count", req.Count),
			attribute.String("report.trigger", req.Trigger),
		),
	)
}

// RecordCompletion annotates the span and records report metrics
func (rt *ReportTracer) RecordCompletion(ctx context.Context, span trace.Span, req ReportRequest, source string, stats domain.ReportStats, duration time.Duration, err error) {
	span.SetAttributes(
		attribute.String("report.source", source),
		attribute.Int64("report.rows_read", stats.RowsRead),
		attribute.Int64("report.rows_in_year", stats.RowsInYear),
		attribute.Int64("report.duplicates_dropped", stats.DuplicatesDropped),
		attribute.Float64("report.duration_seconds", duration.Seconds()),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	infrastructure.RecordReportMetrics(ctx, rt.metrics, req.Trigger, req.Year, duration, stats.RowsRead, err)
}
