package pricechange

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almk-dev/nadac/internal/dataset"
	apperrors "github.com/almk-dev/nadac/internal/errors"
	"github.com/almk-dev/nadac/internal/shared/testutil"
	"github.com/almk-dev/nadac/pkg/contracts/domain"
)

func rec(desc, oldPrice, newPrice, effective string) domain.PriceChangeRecord {
	return domain.PriceChangeRecord{
		Description:   desc,
		OldPrice:      oldPrice,
		NewPrice:      newPrice,
		EffectiveDate: effective,
	}
}

func newTestGenerator(t *testing.T) (*Generator, *testutil.BufferedSlogHandler) {
	logger, logs := testutil.NewTestLogger(t)
	return NewGenerator(logger), logs
}

func TestGenerateReport_Format(t *testing.T) {
	gen, _ := newTestGenerator(t)
	source := NewSliceSource(
		rec("DRUG NAME 10MG TABLET", "1.00", "4.45", "03/01/2020"),
		rec("OTHER DRUG 5MG CAPSULE", "2.50", "1.30", "03/02/2020"),
	)

	text, err := gen.GenerateReport(context.Background(), source, 2020, 10)
	require.NoError(t, err)

	expected := "Top 10 NADAC per unit price increases of 2020:\n" +
		"$3.45: DRUG NAME 10MG TABLET\n" +
		"\n" +
		"Top 10 NADAC per unit price decreases of 2020:\n" +
		"-$1.20: OTHER DRUG 5MG CAPSULE\n"
	assert.Equal(t, expected, text)
}

func TestGenerateReport_CountZero(t *testing.T) {
	gen, _ := newTestGenerator(t)
	source := NewSliceSource(rec("A", "1", "2", "01/01/2020"))

	text, err := gen.GenerateReport(context.Background(), source, 2020, 0)
	require.NoError(t, err)

	assert.Equal(t,
		"Top 0 NADAC per unit price increases of 2020:\n\nTop 0 NADAC per unit price decreases of 2020:\n",
		text)
}

func TestGenerate_FiltersByYearAndSkipsZero(t *testing.T) {
	gen, _ := newTestGenerator(t)
	source := NewSliceSource(
		rec("OLD", "1", "9", "01/01/2019"),
		rec("KEPT", "1", "2", "01/01/2020"),
		rec("FLAT", "3.10", "3.1", "02/01/2020"),
		rec("UNDATED", "1", "50", ""),
	)

	report, err := gen.Generate(context.Background(), source, 2020, 5)
	require.NoError(t, err)

	assert.Equal(t, []string{"KEPT"}, descriptions(report.Increases))
	assert.Empty(t, report.Decreases)
	assert.Equal(t, int64(4), report.Stats.RowsRead)
	assert.Equal(t, int64(2), report.Stats.RowsInYear)
	assert.Equal(t, int64(1), report.Stats.Unchanged)
}

func TestGenerate_RecordFeedsOneDirection(t *testing.T) {
	gen, _ := newTestGenerator(t)
	source := NewSliceSource(
		rec("UP", "1.00", "2.00", "01/01/2020"),
		rec("DOWN", "2.00", "1.00", "01/01/2020"),
	)

	report, err := gen.Generate(context.Background(), source, 2020, 5)
	require.NoError(t, err)

	assert.Equal(t, []string{"UP"}, descriptions(report.Increases))
	assert.Equal(t, []string{"DOWN"}, descriptions(report.Decreases))
	assert.True(t, report.Decreases[0].Magnitude.IsPositive(), "decreases are kept by magnitude")
}

func TestGenerate_DuplicatesCounted(t *testing.T) {
	gen, _ := newTestGenerator(t)
	source := NewSliceSource(
		rec("A", "1.00", "2.50", "01/01/2020"),
		rec("A", "2.00", "3.5", "05/01/2020"),
		rec("A", "2.00", "3.6", "05/01/2020"),
	)

	report, err := gen.Generate(context.Background(), source, 2020, 5)
	require.NoError(t, err)

	assert.Len(t, report.Increases, 2)
	assert.Equal(t, int64(1), report.Stats.DuplicatesDropped)
}

func TestGenerate_RoundsHalfAwayFromZero(t *testing.T) {
	gen, _ := newTestGenerator(t)
	source := NewSliceSource(
		rec("UP", "1.000", "1.125", "01/01/2020"),
		rec("DOWN", "1.125", "1.000", "01/01/2020"),
	)

	text, err := gen.GenerateReport(context.Background(), source, 2020, 1)
	require.NoError(t, err)

	assert.Contains(t, text, "$0.13: UP\n")
	assert.Contains(t, text, "-$0.13: DOWN\n")
}

func TestGenerate_MalformedPriceAborts(t *testing.T) {
	tests := []struct {
		name  string
		bad   domain.PriceChangeRecord
		field string
	}{
		{"old price", rec("X", "N/A", "1.00", "01/01/2020"), domain.FieldOldPrice},
		{"new price", rec("X", "1.00", "", "01/01/2020"), domain.FieldNewPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, logs := newTestGenerator(t)
			source := NewSliceSource(rec("OK", "1", "2", "01/01/2020"), tt.bad)

			report, err := gen.Generate(context.Background(), source, 2020, 10)

			require.Error(t, err)
			assert.Nil(t, report)
			assert.True(t, errors.Is(err, apperrors.ErrMalformedRecord))

			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.field, appErr.Context["field"])
			assert.Equal(t, int64(2), appErr.Context["row"])

			testutil.AssertLogContains(t, logs, slog.LevelError, "malformed dataset record")
		})
	}
}

func TestGenerate_MalformedRowIsFileRow(t *testing.T) {
	data := testutil.EncodeCSV(t, true,
		testutil.DatasetRow("OK", "1.00", "2.00", "01/01/2020"),
		testutil.DatasetRow("BAD", "1.00", "N/A", "01/02/2020"),
	)
	dec := dataset.NewDecoder(bytes.NewReader(data), dataset.DecoderOptions{SkipHeader: true})
	gen, logs := newTestGenerator(t)

	_, err := gen.Generate(context.Background(), dec, 2020, 10)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, int64(3), appErr.Context["row"])
	assert.Contains(t, appErr.Message, "row 3:")
	assert.Equal(t, dec.Row(), appErr.Context["row"])
	testutil.AssertLogAttr(t, logs, "row", int64(3))
}

func TestGenerate_LogsSelectionThreshold(t *testing.T) {
	gen, logs := newTestGenerator(t)
	source := NewSliceSource(
		rec("A", "1.00", "2.00", "01/01/2020"),
		rec("B", "1.00", "3.50", "01/01/2020"),
		rec("C", "1.00", "1.25", "01/01/2020"),
		rec("D", "5.00", "4.00", "01/01/2020"),
	)

	_, err := gen.Generate(context.Background(), source, 2020, 2)
	require.NoError(t, err)

	var selections []testutil.LogRecord
	for _, r := range logs.GetRecordsByLevel(slog.LevelDebug) {
		if r.Message == "selection complete" {
			selections = append(selections, r)
		}
	}
	require.Len(t, selections, 2)

	assert.Equal(t, "increases", selections[0].Attrs["direction"])
	assert.Equal(t, int64(2), selections[0].Attrs["kept"])
	assert.Equal(t, int64(2), selections[0].Attrs["capacity"])
	assert.Equal(t, "1.00", selections[0].Attrs["threshold"])

	assert.Equal(t, "decreases", selections[1].Attrs["direction"])
	assert.Equal(t, int64(1), selections[1].Attrs["kept"])
	assert.Equal(t, "1.00", selections[1].Attrs["threshold"])
}

func TestGenerate_MalformedPriceOutsideYearIgnored(t *testing.T) {
	gen, _ := newTestGenerator(t)
	source := NewSliceSource(
		rec("HEADER", "Old NADAC Per Unit", "New NADAC Per Unit", "Effective Date"),
		rec("BAD", "N/A", "N/A", "06/01/2019"),
		rec("OK", "1", "2", "01/01/2020"),
	)

	_, err := gen.Generate(context.Background(), source, 2020, 10)
	assert.NoError(t, err)
}

type failingSource struct {
	err error
}

func (f failingSource) Next() (domain.PriceChangeRecord, error) {
	return domain.PriceChangeRecord{}, f.err
}

func TestGenerate_SourceErrorSurfacedUnchanged(t *testing.T) {
	gen, _ := newTestGenerator(t)
	sourceErr := apperrors.NewSourceUnavailableError("data/nadac.csv.xz", io.ErrUnexpectedEOF)

	_, err := gen.Generate(context.Background(), failingSource{err: sourceErr}, 2020, 10)

	assert.Same(t, sourceErr, err)
	assert.True(t, errors.Is(err, apperrors.ErrSourceUnavailable))
}

func TestGenerate_InvalidParameters(t *testing.T) {
	gen, _ := newTestGenerator(t)

	_, err := gen.Generate(context.Background(), NewSliceSource(), 2020, -1)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidParameter))

	_, err = gen.Generate(context.Background(), NewSliceSource(), 0, 10)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidParameter))
}

func TestGenerate_Cancelled(t *testing.T) {
	gen, _ := newTestGenerator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gen.Generate(ctx, NewSliceSource(rec("A", "1", "2", "01/01/2020")), 2020, 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerate_Idempotent(t *testing.T) {
	gen, _ := newTestGenerator(t)
	records := []domain.PriceChangeRecord{
		rec("A", "1.00", "1.50", "01/01/2020"),
		rec("B", "1.00", "1.50", "01/01/2020"),
		rec("C", "3.00", "1.00", "01/01/2020"),
		rec("D", "0.10", "0.90", "01/01/2020"),
	}

	first, err := gen.GenerateReport(context.Background(), NewSliceSource(records...), 2020, 2)
	require.NoError(t, err)
	second, err := gen.GenerateReport(context.Background(), NewSliceSource(records...), 2020, 2)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestReport_Document(t *testing.T) {
	gen, _ := newTestGenerator(t)
	report, err := gen.Generate(context.Background(), NewSliceSource(
		rec("UP", "1", "3.456", "01/01/2020"),
		rec("DOWN", "5", "4", "01/01/2020"),
	), 2020, 3)
	require.NoError(t, err)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	doc := report.Document("2b1a36f4-0d43-4c6a-9a57-6d7b0f0c2b11", "sample.csv", at)

	require.Len(t, doc.Increases, 1)
	assert.Equal(t, domain.PriceChangeLine{
		Rank: 1, Direction: domain.DirectionIncrease, Amount: "2.46", Description: "UP",
	}, doc.Increases[0])
	require.Len(t, doc.Decreases, 1)
	assert.Equal(t, "1.00", doc.Decreases[0].Amount)
	assert.Equal(t, at, doc.GeneratedAt)
	assert.True(t, strings.HasPrefix(doc.Text, "Top 3 NADAC per unit price increases of 2020:\n"))
}
