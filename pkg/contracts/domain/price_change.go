package domain

// Field names of a NADAC comparison row, in file order.
const (
	FieldNDCDescription = "ndc_desc"
	FieldNDC            = "ndc"
	FieldOldPrice       = "old_price"
	FieldNewPrice       = "new_price"
	FieldClass          = "class"
	FieldPercentChange  = "pct_change"
	FieldReason         = "reason"
	FieldStartDate      = "start_date"
	FieldEndDate        = "end_date"
	FieldEffectiveDate  = "effective_date"
)

// DefaultFieldNames is the column layout of the published NADAC comparison file.
func DefaultFieldNames() []string {
	return []string{
		FieldNDCDescription,
		FieldNDC,
		FieldOldPrice,
		FieldNewPrice,
		FieldClass,
		FieldPercentChange,
		FieldReason,
		FieldStartDate,
		FieldEndDate,
		FieldEffectiveDate,
	}
}

// PriceChangeRecord is one row of the NADAC comparison dataset.
// Values are kept exactly as read; prices are parsed by the consumer.
type PriceChangeRecord struct {
	Description   string `json:"ndc_desc"`
	NDC           string `json:"ndc"`
	OldPrice      string `json:"old_price"`
	NewPrice      string `json:"new_price"`
	Class         string `json:"class"`
	PercentChange string `json:"pct_change"`
	Reason        string `json:"reason"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	EffectiveDate string `json:"effective_date"`
}

// Set assigns value to the field with the given name. Unknown names are ignored
// so that files with extra columns still decode.
func (r *PriceChangeRecord) Set(field, value string) {
	switch field {
	case FieldNDCDescription:
		r.Description = value
	case FieldNDC:
		r.NDC = value
	case FieldOldPrice:
		r.OldPrice = value
	case FieldNewPrice:
		r.NewPrice = value
	case FieldClass:
		r.Class = value
	case FieldPercentChange:
		r.PercentChange = value
	case FieldReason:
		r.Reason = value
	case FieldStartDate:
		r.StartDate = value
	case FieldEndDate:
		r.EndDate = value
	case FieldEffectiveDate:
		r.EffectiveDate = value
	}
}

// IsKnownField reports whether name is one of the record fields.
func IsKnownField(name string) bool {
	for _, f := range DefaultFieldNames() {
		if f == name {
			return true
		}
	}
	return false
}

// Direction selects which side of the report a price change belongs to.
type Direction string

const (
	DirectionIncrease Direction = "increases"
	DirectionDecrease Direction = "decreases"
)

// Sign is the prefix printed before the amount of a change in this direction.
func (d Direction) Sign() string {
	if d == DirectionDecrease {
		return "-"
	}
	return ""
}
