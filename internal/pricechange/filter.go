package pricechange

import (
	"strconv"
	"strings"

	"github.com/almk-dev/nadac/pkg/contracts/domain"
)

// InYear reports whether the record's effective date belongs to year.
//
// Dates are published as MM/DD/YYYY, so the year is matched as a suffix of the
// raw string rather than by parsing it. Blank or differently formatted dates
// simply do not match.
func InYear(record domain.PriceChangeRecord, year int) bool {
	date := strings.TrimSpace(record.EffectiveDate)
	if date == "" {
		return false
	}
	return strings.HasSuffix(date, strconv.Itoa(year))
}
