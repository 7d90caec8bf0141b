package domain

import (
	"time"
)

// PriceChangeReport is the structured form of a generated top price change report
type PriceChangeReport struct {
	ID          string            `json:"id" validate:"required,uuid"`
	Year        int               `json:"year" validate:"gt=0"`
	Count       int               `json:"count" validate:"gte=0"`
	Source      string            `json:"source,omitempty"`
	GeneratedAt time.Time         `json:"generated_at"`
	Increases   []PriceChangeLine `json:"increases"`
	Decreases   []PriceChangeLine `json:"decreases"`
	Stats       ReportStats       `json:"stats"`
	Text        string            `json:"text"`
}

// PriceChangeLine is one ranked row of a report section
type PriceChangeLine struct {
	Rank        int       `json:"rank"`
	Direction   Direction `json:"direction"`
	Amount      string    `json:"amount"` // magnitude, fixed two decimals
	Description string    `json:"description"`
}

// Section returns the lines for the given direction
func (r *PriceChangeReport) Section(d Direction) []PriceChangeLine {
	if d == DirectionDecrease {
		return r.Decreases
	}
	return r.Increases
}

// ReportStats summarizes a single pass over the dataset
type ReportStats struct {
	RowsRead          int64         `json:"rows_read"`
	RowsInYear        int64         `json:"rows_in_year"`
	Increases         int64         `json:"increases"`
	Decreases         int64         `json:"decreases"`
	Unchanged         int64         `json:"unchanged"`
	DuplicatesDropped int64         `json:"duplicates_dropped"`
	Duration          time.Duration `json:"duration"`
}

// ReportFormat defines the output format of an exported report
type ReportFormat string

const (
	ReportFormatText  ReportFormat = "text"
	ReportFormatCSV   ReportFormat = "csv"
	ReportFormatJSON  ReportFormat = "json"
	ReportFormatExcel ReportFormat = "excel"
)
