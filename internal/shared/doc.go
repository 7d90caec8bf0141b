// Package shared holds helpers used across packages that belong to no single
// layer.
//
// # Test Utilities
//
// The testutil subpackage provides:
//
//	- DatasetFixtures for writing plain, gzip, xz, lzma and zstd NADAC
//	  comparison files into a temporary directory
//	- DatasetRow for building rows in the dataset column layout
//	- A capturing slog handler for asserting on log records
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    fx := testutil.NewDatasetFixtures(t)
//	    path := fx.WriteDataset("nadac.csv", "none",
//	        testutil.DatasetRow("DRUG A 10 MG TABLET", "1.00", "3.50", "01/15/2020"))
//	    // ...
//	}
//
// This package should not import domain packages.
package shared
