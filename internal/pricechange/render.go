package pricechange

import (
	"fmt"
	"strings"

	"github.com/almk-dev/nadac/pkg/contracts/domain"
)

// AmountPlaces is the number of decimal places printed for an amount.
const AmountPlaces = 2

// Header returns the heading line of a report section, newline included.
func Header(direction domain.Direction, count, year int) string {
	return fmt.Sprintf("Top %d NADAC per unit price %s of %d:\n", count, direction, year)
}

// FormatAmount renders the entry magnitude with exactly two decimals.
func FormatAmount(e Entry) string {
	return e.Magnitude.StringFixed(AmountPlaces)
}

// FormatLine renders one section line, newline included.
func FormatLine(direction domain.Direction, e Entry) string {
	return fmt.Sprintf("%s$%s: %s\n", direction.Sign(), FormatAmount(e), e.Description)
}

// RenderSection writes the header and the entries, which must already be in
// descending magnitude order.
func RenderSection(b *strings.Builder, direction domain.Direction, count, year int, entries []Entry) {
	b.WriteString(Header(direction, count, year))
	for _, e := range entries {
		b.WriteString(FormatLine(direction, e))
	}
}

// Render produces the full report text: increases, a blank line, decreases.
func Render(r *Report) string {
	var b strings.Builder
	RenderSection(&b, domain.DirectionIncrease, r.Count, r.Year, r.Increases)
	b.WriteString("\n")
	RenderSection(&b, domain.DirectionDecrease, r.Count, r.Year, r.Decreases)
	return b.String()
}
