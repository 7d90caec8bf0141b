// nadac-report prints the largest NADAC per unit price increases and
// decreases of a year.
//
// Usage:
//
//	nadac-report [--year 2023] [--count 10] [--data FILE] [--out FILE ...]
//	nadac-report serve [--addr :8080]
//	nadac-report version [--json]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/almk-dev/nadac/internal/app"
	"github.com/almk-dev/nadac/internal/config"
	apperrors "github.com/almk-dev/nadac/internal/errors"
	"github.com/almk-dev/nadac/internal/exporter"
	"github.com/almk-dev/nadac/internal/infrastructure"
	"github.com/almk-dev/nadac/internal/services"
	"github.com/almk-dev/nadac/pkg/contracts"
)

// Exit codes
const (
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      config.AppName,
		Usage:     "Top NADAC per unit price increases and decreases of a year",
		Version:   contracts.Version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to a YAML config file",
				EnvVars: []string{config.EnvPrefix + "_CONFIG"},
			},
			&cli.IntFlag{
				Name:    "year",
				Aliases: []string{"y"},
				Value:   config.DefaultYear,
				Usage:   "Year of the effective date to report on",
			},
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"c"},
				Value:   config.DefaultCount,
				Usage:   "Number of entries per section",
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Dataset file (default: newest nadac-comparison-*.csv* in the data directory)",
			},
			&cli.BoolFlag{
				Name:  "skip-header",
				Usage: "Treat the first row of the dataset as a header",
			},
			&cli.StringSliceFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Also export to `FILE` (.txt, .csv, .json or .xlsx); repeatable",
			},
		},
		Action: runReport,
		Commands: []*cli.Command{
			serveCommand(),
			versionCommand(),
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve reports over HTTP and run scheduled exports",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (overrides server.addr)",
			},
			&cli.StringFlag{
				Name:  "schedule",
				Usage: "Cron spec with seconds field for scheduled exports (overrides schedule.spec)",
			},
		},
		Action: runServe,
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print as JSON"},
		},
		Action: func(c *cli.Context) error {
			if c.Bool("json") {
				enc := json.NewEncoder(c.App.Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(contracts.GetVersionInfo())
			}
			_, err := fmt.Fprintln(c.App.Writer, contracts.GetFullVersionString())
			return err
		},
	}
}

// loadConfig loads the config file and environment, then applies the flags
// the user set explicitly.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("year") {
		cfg.Report.Year = c.Int("year")
	}
	if c.IsSet("count") {
		cfg.Report.Count = c.Int("count")
	}
	if c.IsSet("skip-header") {
		cfg.Dataset.SkipHeader = c.Bool("skip-header")
	}
	if data := c.String("data"); data != "" {
		abs, err := filepath.Abs(data)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve dataset path %s: %w", data, err)
		}
		cfg.Dataset.Path = abs
	}
	return cfg, nil
}

// cliLogger keeps stdout for the report text
func cliLogger(c *cli.Context, cfg config.LoggingConfig) (*slog.Logger, error) {
	switch strings.ToLower(cfg.Output) {
	case "file", "both":
		return infrastructure.InitializeLogger(cfg)
	default:
		logger := infrastructure.NewLogger(cfg, c.App.ErrWriter)
		slog.SetDefault(logger)
		return logger, nil
	}
}

func runReport(c *cli.Context) error {
	if c.Args().Present() {
		return apperrors.NewInvalidParameterError("command", c.Args().First(), "unknown command")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger, err := cliLogger(c, cfg.Logging)
	if err != nil {
		return err
	}
	defer infrastructure.CloseLogFile()

	paths, err := config.GetPaths(cfg.Paths)
	if err != nil {
		return err
	}

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, contracts.Version, c.App.ErrWriter, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	ctx, stop := signal.NotifyContext(contextOf(c), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = infrastructure.WithTraceID(ctx, infrastructure.GenerateTraceID())

	svc := services.NewReportService(cfg.Dataset, paths, services.NewReportTracer(providers), logger)
	doc, err := svc.Generate(ctx, services.ReportRequest{
		Year:    cfg.Report.Year,
		Count:   cfg.Report.Count,
		Trigger: services.TriggerCLI,
	})
	if err != nil {
		return err
	}

	if _, err := io.WriteString(c.App.Writer, doc.Text); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	outs := c.StringSlice("out")
	if len(outs) == 0 {
		return nil
	}
	// Output paths are relative to the working directory, not the reports dir.
	for i, out := range outs {
		abs, err := filepath.Abs(out)
		if err != nil {
			return fmt.Errorf("failed to resolve output path %s: %w", out, err)
		}
		outs[i] = abs
	}
	_, err = exporter.NewWriter(paths, logger).ExportAll(outs, doc)
	return err
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if addr := c.String("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if spec := c.String("schedule"); spec != "" {
		cfg.Schedule.Spec = spec
		if len(cfg.Schedule.Outputs) == 0 {
			cfg.Schedule.Outputs = []string{config.DefaultTextReport, config.DefaultExcelReport}
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer infrastructure.CloseLogFile()

	application, err := app.NewApplication(cfg, logger, c.App.ErrWriter)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(contextOf(c), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return application.Run(ctx)
}

func contextOf(c *cli.Context) context.Context {
	if c.Context != nil {
		return c.Context
	}
	return context.Background()
}

// exitCode maps rejected input to a usage error and everything else to a
// general failure.
func exitCode(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInvalidParameter),
		apperrors.IsType(err, apperrors.ErrTypeConfig):
		return exitUsage
	default:
		return exitFailure
	}
}
