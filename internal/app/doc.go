// Package app assembles the report server: configuration, services, HTTP
// router, export schedule and telemetry.
//
// # Initialization Flow
//
//	1. Resolve and create the data, reports and logs directories
//	2. Initialize OpenTelemetry and register system metrics
//	3. Create the report, health and export services
//	4. Create the export scheduler (disabled without a schedule spec)
//	5. Set up middleware, handlers and the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication(cfg, logger, os.Stderr)
//	if err != nil {
//	    return err
//	}
//	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	return application.Run(ctx)
//
// # Graceful Shutdown
//
// Cancelling the context passed to Run stops accepting connections, waits
// for in-flight requests and a running scheduled export, then flushes
// telemetry. The app never calls os.Exit.
package app
