// Package pricechange selects the largest NADAC per unit price increases and
// decreases of a year and renders them as a text report.
//
// The dataset is streamed once. Each record whose effective date falls in the
// requested year is turned into a signed price change (new price minus old
// price) and offered to one of two bounded selections, one per direction. A
// selection never holds more than count entries, so memory stays O(count)
// regardless of the dataset size.
//
// # Components
//
//   - filter.go: year membership test on the effective date
//   - selection.go: bounded min-heap with duplicate suppression
//   - generator.go: the streaming pass over a RecordSource
//   - render.go: section headers and line formatting
//
// # Report Format
//
//	Top 10 NADAC per unit price increases of 2020:
//	$3.45: DRUG NAME 10MG TABLET
//	...
//
//	Top 10 NADAC per unit price decreases of 2020:
//	-$1.20: OTHER DRUG 5MG CAPSULE
//	...
//
// Amounts are rounded half away from zero to two decimal places. Entries that
// tie on magnitude are listed in the order their records were read.
//
// # Usage Example
//
//	gen := pricechange.NewGenerator(logger)
//	text, err := gen.GenerateReport(ctx, decoder, 2020, 10)
//	if err != nil {
//	    return fmt.Errorf("generate report: %w", err)
//	}
//	fmt.Print(text)
package pricechange
