package config

// Application constants
const (
	AppName = "nadac-report"

	// Report sizes accepted without configuration
	DefaultYear  = 2023
	DefaultCount = 10

	// Names of the files written by scheduled exports when no path is configured
	DefaultTextReport  = "top_price_changes.txt"
	DefaultExcelReport = "top_price_changes.xlsx"
)
