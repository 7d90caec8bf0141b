// Package config provides configuration loading and path resolution for the
// NADAC report tools.
//
// # Configuration Sources
//
// Configuration is assembled in order of increasing precedence:
//
//	1. Default values (Default)
//	2. A YAML file: the --config flag, $NADAC_CONFIG, or nadac.yaml / config.yaml /
//	   configs/config.yaml in the working directory
//	3. Environment variables
//
// The merged result is validated with struct tags before use.
//
// # Environment Variables
//
// Variables are prefixed with NADAC_ and follow the section layout:
//
//	NADAC_REPORT_YEAR=2020
//	NADAC_REPORT_COUNT=10
//	NADAC_DATASET_FILE=data/nadac-comparison-04-17-2024.csv.lzma
//	NADAC_DATASET_FIELD_NAMES=ndc_desc,ndc,old_price,new_price,class,pct_change,reason,start_date,end_date,effective_date
//	NADAC_LOGGING_LEVEL=debug
//	NADAC_SERVER_ADDR=:8080
//	NADAC_SCHEDULE_SPEC="0 0 6 * * *"
//
// # Path Management
//
// GetPaths resolves the data, reports and logs directories against a base
// directory (the working directory unless paths.base_dir is set):
//
//	paths, err := config.GetPaths(cfg.Paths)
//	out := paths.GetReportPath("top_10_2020.xlsx")
package config
