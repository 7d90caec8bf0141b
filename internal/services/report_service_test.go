package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almk-dev/nadac/internal/config"
	apperrors "github.com/almk-dev/nadac/internal/errors"
	"github.com/almk-dev/nadac/internal/infrastructure"
	"github.com/almk-dev/nadac/internal/shared/testutil"
	"github.com/almk-dev/nadac/pkg/contracts/domain"
)

func sampleRows() [][]string {
	return [][]string{
		testutil.DatasetRow("DRUG A 10 MG TABLET", "1.00", "3.50", "01/15/2020"),
		testutil.DatasetRow("DRUG B 20 MG TABLET", "4.00", "1.25", "02/15/2020"),
		testutil.DatasetRow("DRUG C 5 MG CAPSULE", "2.00", "2.10", "03/15/2020"),
		testutil.DatasetRow("DRUG D 1 MG TABLET", "9.00", "1.00", "03/15/2019"),
		testutil.DatasetRow("DRUG E 15 MG TABLET", "5.00", "5.00", "04/15/2020"),
	}
}

func newService(t *testing.T, fx *testutil.DatasetFixtures, dataset config.DatasetConfig, tracer *ReportTracer) (*ReportService, *testutil.BufferedSlogHandler) {
	t.Helper()
	paths, err := config.GetPaths(config.PathsConfig{BaseDir: fx.Dir, DataDir: ".", ReportsDir: "reports", LogsDir: "logs"})
	require.NoError(t, err)

	logger, logs := testutil.NewTestLogger(t)
	return NewReportService(dataset, paths, tracer, logger), logs
}

func defaultDataset() config.DatasetConfig {
	cfg := config.Default().Dataset
	cfg.SkipHeader = true
	return cfg
}

func TestReportService_Generate(t *testing.T) {
	fx := testutil.NewDatasetFixtures(t)
	fx.WriteDataset("nadac-comparison-04-17-2024.csv.xz", "xz", sampleRows()...)

	svc, logs := newService(t, fx, defaultDataset(), nil)
	doc, err := svc.Generate(context.Background(), ReportRequest{Year: 2020, Count: 10, Trigger: TriggerCLI})
	require.NoError(t, err)

	assert.Len(t, doc.ID, 36)
	assert.Equal(t, "nadac-comparison-04-17-2024.csv.xz", doc.Source)
	assert.Equal(t, 2020, doc.Year)
	assert.Equal(t, []domain.PriceChangeLine{
		{Rank: 1, Direction: domain.DirectionIncrease, Amount: "2.50", Description: "DRUG A 10 MG TABLET"},
		{Rank: 2, Direction: domain.DirectionIncrease, Amount: "0.10", Description: "DRUG C 5 MG CAPSULE"},
	}, doc.Increases)
	assert.Equal(t, []domain.PriceChangeLine{
		{Rank: 1, Direction: domain.DirectionDecrease, Amount: "2.75", Description: "DRUG B 20 MG TABLET"},
	}, doc.Decreases)
	assert.Equal(t, int64(5), doc.Stats.RowsRead)
	assert.Equal(t, int64(4), doc.Stats.RowsInYear)
	assert.Equal(t, int64(1), doc.Stats.Unchanged)
	assert.Equal(t,
		"Top 10 NADAC per unit price increases of 2020:\n$2.50: DRUG A 10 MG TABLET\n$0.10: DRUG C 5 MG CAPSULE\n\n"+
			"Top 10 NADAC per unit price decreases of 2020:\n-$2.75: DRUG B 20 MG TABLET\n",
		doc.Text)

	testutil.AssertLogContains(t, logs, slog.LevelInfo, "report generated")
	assert.True(t, logs.ContainsAttr("report_id", doc.ID))
	assert.True(t, logs.ContainsAttr("trigger", TriggerCLI))
	testutil.AssertNoErrors(t, logs)
}

func TestReportService_HeaderRowWithoutSkip(t *testing.T) {
	fx := testutil.NewDatasetFixtures(t)
	fx.WriteDataset("nadac-comparison-sample.csv", "none", sampleRows()...)

	cfg := config.Default().Dataset
	svc, _ := newService(t, fx, cfg, nil)

	doc, err := svc.Generate(context.Background(), ReportRequest{Year: 2020, Count: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(6), doc.Stats.RowsRead, "header counted as a row and filtered by year")
	assert.Equal(t, int64(4), doc.Stats.RowsInYear)
}

func TestReportService_ExplicitPath(t *testing.T) {
	fx := testutil.NewDatasetFixtures(t)
	fx.WriteDataset("nadac-comparison-01-01-2024.csv", "none", sampleRows()[:1]...)
	explicit := fx.WriteDataset(filepath.Join("archive", "older.csv.gz"), "gzip", sampleRows()[1:2]...)

	cfg := defaultDataset()
	cfg.Path = "archive/older.csv.gz"
	svc, _ := newService(t, fx, cfg, nil)

	path, err := svc.ResolveDataset()
	require.NoError(t, err)
	assert.Equal(t, explicit, path)

	doc, err := svc.Generate(context.Background(), ReportRequest{Year: 2020, Count: 5})
	require.NoError(t, err)
	assert.Empty(t, doc.Increases)
	require.Len(t, doc.Decreases, 1)
	assert.Equal(t, "older.csv.gz", doc.Source)
}

func TestReportService_Errors(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(fx *testutil.DatasetFixtures)
		req      ReportRequest
		sentinel error
		wantType apperrors.ErrorType
	}{
		{
			name:     "no dataset in data dir",
			setup:    func(fx *testutil.DatasetFixtures) {},
			req:      ReportRequest{Year: 2020, Count: 10},
			sentinel: apperrors.ErrSourceUnavailable,
		},
		{
			name: "truncated xz",
			setup: func(fx *testutil.DatasetFixtures) {
				fx.WriteCorrupted("nadac-comparison-bad.csv.xz", "truncated_xz")
			},
			req:      ReportRequest{Year: 2020, Count: 10},
			sentinel: apperrors.ErrSourceUnavailable,
		},
		{
			name: "malformed price",
			setup: func(fx *testutil.DatasetFixtures) {
				fx.WriteDataset("nadac-comparison-x.csv", "none",
					testutil.DatasetRow("DRUG A 10 MG TABLET", "1.00", "N/A", "01/15/2020"))
			},
			req:      ReportRequest{Year: 2020, Count: 10},
			sentinel: apperrors.ErrMalformedRecord,
		},
		{
			name:     "negative count",
			setup:    func(fx *testutil.DatasetFixtures) {},
			req:      ReportRequest{Year: 2020, Count: -1},
			sentinel: apperrors.ErrInvalidParameter,
		},
		{
			name:     "zero year",
			setup:    func(fx *testutil.DatasetFixtures) {},
			req:      ReportRequest{Year: 0, Count: 1},
			sentinel: apperrors.ErrInvalidParameter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := testutil.NewDatasetFixtures(t)
			tt.setup(fx)
			svc, logs := newService(t, fx, defaultDataset(), nil)

			doc, err := svc.Generate(context.Background(), tt.req)
			require.Error(t, err)
			assert.Nil(t, doc)
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)

			if !errors.Is(err, apperrors.ErrInvalidParameter) {
				testutil.AssertLogContains(t, logs, slog.LevelError, "report generation failed")
			}
		})
	}
}

func TestReportService_Cancelled(t *testing.T) {
	fx := testutil.NewDatasetFixtures(t)
	fx.WriteDataset("nadac-comparison-sample.csv", "none", sampleRows()...)
	svc, _ := newService(t, fx, defaultDataset(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Generate(ctx, ReportRequest{Year: 2020, Count: 10})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReportService_Tracing(t *testing.T) {
	var spans bytes.Buffer
	providers, err := infrastructure.InitializeOTel(config.TelemetryConfig{
		ServiceName:    "nadac-report-test",
		TracingEnabled: true,
		MetricsEnabled: true,
	}, "test", &spans, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	fx := testutil.NewDatasetFixtures(t)
	fx.WriteDataset("nadac-comparison-sample.csv.zst", "zstd", sampleRows()...)
	svc, _ := newService(t, fx, defaultDataset(), NewReportTracer(providers))

	_, err = svc.Generate(context.Background(), ReportRequest{Year: 2020, Count: 3, Trigger: TriggerHTTP})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, providers.Shutdown(ctx))

	out := spans.String()
	assert.Contains(t, out, "report.price_changes")
	assert.Contains(t, out, "report.rows_in_year")
	assert.Contains(t, out, TriggerHTTP)
}

func TestNewReportTracer_Nil(t *testing.T) {
	tracer := NewReportTracer(nil)
	ctx, span := tracer.TraceReport(context.Background(), "id", ReportRequest{Year: 2020})
	assert.False(t, span.IsRecording())

	assert.NotPanics(t, func() {
		tracer.RecordCompletion(ctx, span, ReportRequest{Year: 2020}, "x.csv", domain.ReportStats{}, time.Second, os.ErrNotExist)
	})
	span.End()
}
