// Package dataset reads the NADAC comparison file.
//
// Open returns the decompressed byte stream of a dataset file. The format is
// recognised from the leading magic bytes (xz, gzip, zstd); files ending in
// .lzma use the legacy LZMA "alone" format, and anything else is read as plain
// CSV.
//
// Decoder turns that stream into domain.PriceChangeRecord values one row at a
// time, mapping columns through a configurable field-name list. It satisfies
// pricechange.RecordSource.
//
// Discovery locates the newest comparison file in a data directory when no
// explicit path is configured.
//
// Example usage:
//
//	rc, err := dataset.Open("data/nadac-comparison-04-17-2024.csv.lzma")
//	if err != nil {
//	    return err
//	}
//	defer rc.Close()
//
//	dec := dataset.NewDecoder(rc, dataset.DecoderOptions{})
//	text, err := generator.GenerateReport(ctx, dec, 2020, 10)
package dataset
