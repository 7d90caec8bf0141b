package pricechange

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/almk-dev/nadac/internal/errors"
	"github.com/almk-dev/nadac/pkg/contracts/domain"
)

// cancelCheckInterval is how many rows are read between context checks.
const cancelCheckInterval = 1024

// RecordSource yields dataset records in file order. Next returns io.EOF once
// the stream is exhausted; any other error aborts the run unchanged.
type RecordSource interface {
	Next() (domain.PriceChangeRecord, error)
}

// rowNumberer is implemented by sources that know the file row of the last
// record, header included. Other sources number rows by record.
type rowNumberer interface {
	Row() int64
}

// SliceSource serves records from memory.
type SliceSource struct {
	records []domain.PriceChangeRecord
	pos     int
}

// NewSliceSource returns a RecordSource over records.
func NewSliceSource(records ...domain.PriceChangeRecord) *SliceSource {
	return &SliceSource{records: records}
}

// Next implements RecordSource
func (s *SliceSource) Next() (domain.PriceChangeRecord, error) {
	if s.pos >= len(s.records) {
		return domain.PriceChangeRecord{}, io.EOF
	}
	r := s.records[s.pos]
	s.pos++
	return r, nil
}

// Report is the outcome of one pass: both sections largest first, plus stats.
type Report struct {
	Year      int
	Count     int
	Increases []Entry
	Decreases []Entry
	Stats     domain.ReportStats
}

// Section returns the entries of one direction.
func (r *Report) Section(direction domain.Direction) []Entry {
	if direction == domain.DirectionDecrease {
		return r.Decreases
	}
	return r.Increases
}

// String renders the report text.
func (r *Report) String() string {
	return Render(r)
}

// Document converts the report into its transport form.
func (r *Report) Document(id, source string, generatedAt time.Time) *domain.PriceChangeReport {
	return &domain.PriceChangeReport{
		ID:          id,
		Year:        r.Year,
		Count:       r.Count,
		Source:      source,
		GeneratedAt: generatedAt,
		Increases:   lines(domain.DirectionIncrease, r.Increases),
		Decreases:   lines(domain.DirectionDecrease, r.Decreases),
		Stats:       r.Stats,
		Text:        r.String(),
	}
}

func lines(direction domain.Direction, entries []Entry) []domain.PriceChangeLine {
	out := make([]domain.PriceChangeLine, 0, len(entries))
	for i, e := range entries {
		out = append(out, domain.PriceChangeLine{
			Rank:        i + 1,
			Direction:   direction,
			Amount:      FormatAmount(e),
			Description: e.Description,
		})
	}
	return out
}

// Generator runs the single streaming pass that builds a Report.
type Generator struct {
	logger *slog.Logger
}

// NewGenerator creates a generator. A nil logger falls back to slog.Default.
func NewGenerator(logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		logger: logger.With(slog.String("component", "pricechange")),
	}
}

// GenerateReport returns the report text for year, keeping count entries per
// direction.
func (g *Generator) GenerateReport(ctx context.Context, source RecordSource, year, count int) (string, error) {
	report, err := g.Generate(ctx, source, year, count)
	if err != nil {
		return "", err
	}
	return report.String(), nil
}

// Generate consumes source once and returns the selected price changes.
//
// A record whose prices do not parse aborts the run with an error matching
// errors.ErrMalformedRecord; no partial report is returned. Cancellation of ctx
// is observed between rows.
func (g *Generator) Generate(ctx context.Context, source RecordSource, year, count int) (*Report, error) {
	if year <= 0 {
		return nil, apperrors.NewInvalidParameterError("year", year, "must be positive")
	}
	if count < 0 {
		return nil, apperrors.NewInvalidParameterError("count", count, "must not be negative")
	}

	start := time.Now()
	g.logger.DebugContext(ctx, "starting price change scan",
		slog.Int("year", year),
		slog.Int("count", count),
	)

	increases := NewSelection(count)
	decreases := NewSelection(count)
	var stats domain.ReportStats

	for {
		if stats.RowsRead%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := source.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		stats.RowsRead++

		if !InYear(record, year) {
			continue
		}
		stats.RowsInYear++

		change, err := priceChange(record, rowOf(source, stats.RowsRead))
		if err != nil {
			g.logger.ErrorContext(ctx, "malformed dataset record",
				slog.Int64("row", rowOf(source, stats.RowsRead)),
				slog.String("error", err.Error()),
			)
			return nil, err
		}

		var result OfferResult
		switch change.Sign() {
		case 0:
			stats.Unchanged++
			continue
		case 1:
			stats.Increases++
			result = increases.Offer(change, record.Description)
		default:
			stats.Decreases++
			result = decreases.Offer(change.Neg(), record.Description)
		}
		if result == Duplicate {
			stats.DuplicatesDropped++
		}
	}

	stats.Duration = time.Since(start)
	g.logSelection(ctx, domain.DirectionIncrease, increases)
	g.logSelection(ctx, domain.DirectionDecrease, decreases)

	report := &Report{
		Year:      year,
		Count:     count,
		Increases: increases.Drain(),
		Decreases: decreases.Drain(),
		Stats:     stats,
	}

	g.logger.InfoContext(ctx, "price change scan completed",
		slog.Int("year", year),
		slog.Int("count", count),
		slog.Int64("rows_read", stats.RowsRead),
		slog.Int64("rows_in_year", stats.RowsInYear),
		slog.Int64("duplicates_dropped", stats.DuplicatesDropped),
		slog.Duration("duration", stats.Duration),
	)

	return report, nil
}

// rowOf returns the row number to report for the last record read.
func rowOf(source RecordSource, recordsRead int64) int64 {
	if rn, ok := source.(rowNumberer); ok {
		return rn.Row()
	}
	return recordsRead
}

// logSelection logs how full a selection ended and the smallest kept change.
func (g *Generator) logSelection(ctx context.Context, direction domain.Direction, s *Selection) {
	attrs := []slog.Attr{
		slog.String("direction", string(direction)),
		slog.Int("kept", s.Len()),
		slog.Int("capacity", s.Cap()),
	}
	if lowest, ok := s.Min(); ok {
		attrs = append(attrs, slog.String("threshold", FormatAmount(lowest)))
	}
	g.logger.LogAttrs(ctx, slog.LevelDebug, "selection complete", attrs...)
}

// priceChange returns new_price - old_price for the record on row.
func priceChange(record domain.PriceChangeRecord, row int64) (decimal.Decimal, error) {
	oldPrice, err := parsePrice(record.OldPrice)
	if err != nil {
		return decimal.Zero, apperrors.NewMalformedRecordError(row, domain.FieldOldPrice, record.OldPrice, err)
	}
	newPrice, err := parsePrice(record.NewPrice)
	if err != nil {
		return decimal.Zero, apperrors.NewMalformedRecordError(row, domain.FieldNewPrice, record.NewPrice, err)
	}
	return newPrice.Sub(oldPrice), nil
}

func parsePrice(value string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(value))
}
