// Package exporter writes generated price change reports to files.
//
// The output format follows the file extension:
//
//	.txt   the report text, byte for byte what the CLI prints
//	.csv   one row per ranked line: direction, rank, change, description
//	.json  the structured report document including scan statistics
//	.xlsx  a workbook with Increases, Decreases and Summary sheets
//
// Example usage:
//
//	w := exporter.NewWriter(paths, logger)
//	written, err := w.Export("top_10_2020.xlsx", doc)
//
// Relative paths land in the configured reports directory. Files are written
// to a temporary sibling and renamed into place.
package exporter
