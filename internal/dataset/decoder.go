package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	apperrors "github.com/almk-dev/nadac/internal/errors"
	"github.com/almk-dev/nadac/pkg/contracts/domain"
)

// DecoderOptions configures how CSV rows map onto records.
type DecoderOptions struct {
	// FieldNames names each column in order. Empty means domain.DefaultFieldNames.
	FieldNames []string
	// SkipHeader drops the first row. The published file has a header, but it
	// never matches a year filter, so the default keeps it.
	SkipHeader bool
	// Comma is the field delimiter; zero means ','.
	Comma rune
}

// Decoder streams PriceChangeRecords from CSV input.
type Decoder struct {
	reader     *csv.Reader
	fields     []string
	skipHeader bool
	row        int64
}

// NewDecoder creates a decoder reading from r.
func NewDecoder(r io.Reader, opts DecoderOptions) *Decoder {
	fields := opts.FieldNames
	if len(fields) == 0 {
		fields = domain.DefaultFieldNames()
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true
	// Descriptions carry inch marks such as 5" GAUZE
	reader.LazyQuotes = true
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}

	return &Decoder{
		reader:     reader,
		fields:     append([]string(nil), fields...),
		skipHeader: opts.SkipHeader,
	}
}

// Next returns the next record, or io.EOF at the end of input.
// Columns beyond the field list are ignored and missing trailing columns are
// left empty.
func (d *Decoder) Next() (domain.PriceChangeRecord, error) {
	for {
		values, err := d.reader.Read()
		if err == io.EOF {
			return domain.PriceChangeRecord{}, io.EOF
		}
		if err != nil {
			return domain.PriceChangeRecord{}, d.wrap(err)
		}
		d.row++

		if d.skipHeader && d.row == 1 {
			continue
		}

		var record domain.PriceChangeRecord
		for i, value := range values {
			if i >= len(d.fields) {
				break
			}
			record.Set(d.fields[i], value)
		}
		return record, nil
	}
}

// Row returns the 1-based file row of the last record read, header included.
func (d *Decoder) Row() int64 {
	return d.row
}

func (d *Decoder) wrap(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return apperrors.NewAppError(apperrors.ErrTypeParsing,
			fmt.Sprintf("row %d: invalid CSV", d.row+1), err).
			WithContext("row", d.row+1).
			WithContext("line", parseErr.Line)
	}
	return apperrors.NewSourceUnavailableError("csv stream", err)
}

// ValidateFieldNames checks a configured field list against the record fields.
// Unknown names are allowed only as placeholders for ignored columns, so the
// list must still contain every field the report needs.
func ValidateFieldNames(fields []string) error {
	required := []string{
		domain.FieldNDCDescription,
		domain.FieldOldPrice,
		domain.FieldNewPrice,
		domain.FieldEffectiveDate,
	}

	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f] && domain.IsKnownField(f) {
			return apperrors.NewConfigError(fmt.Sprintf("field %q listed twice", f), nil)
		}
		seen[f] = true
	}
	for _, f := range required {
		if !seen[f] {
			return apperrors.NewConfigError(fmt.Sprintf("field list is missing %q", f), nil)
		}
	}
	return nil
}
