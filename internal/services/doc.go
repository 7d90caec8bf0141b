// Package services implements the application layer shared by the CLI, the
// HTTP API and the export scheduler.
//
// # Services
//
//	- ReportService: resolves the configured NADAC dataset, streams it through
//	  the price change generator and returns the structured report
//	- HealthService: reports process, dataset and schedule health
//
// # Tracing
//
// Each report run gets a UUID and, when tracing is enabled, a span carrying
// the request parameters and scan statistics. Failures are recorded on the
// span and counted in the report metrics:
//
//	svc := services.NewReportService(cfg.Dataset, paths, services.NewReportTracer(providers), logger)
//	doc, err := svc.Generate(ctx, services.ReportRequest{Year: 2020, Count: 10, Trigger: services.TriggerCLI})
//
// # Error Handling
//
// Errors are returned unchanged from the layers below so callers can match
// them with errors.Is against errors.ErrMalformedRecord,
// errors.ErrSourceUnavailable and errors.ErrInvalidParameter.
package services
