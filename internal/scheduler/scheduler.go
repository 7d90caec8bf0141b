package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/almk-dev/nadac/internal/config"
	apperrors "github.com/almk-dev/nadac/internal/errors"
	"github.com/almk-dev/nadac/internal/infrastructure"
	"github.com/almk-dev/nadac/internal/services"
	"github.com/almk-dev/nadac/pkg/contracts/domain"
)

// ReportGenerator produces a report document
type ReportGenerator interface {
	Generate(ctx context.Context, req services.ReportRequest) (*domain.PriceChangeReport, error)
}

// ReportExporter writes a report to every output path
type ReportExporter interface {
	ExportAll(paths []string, report *domain.PriceChangeReport) ([]string, error)
}

// Scheduler runs report exports on a cron schedule.
type Scheduler struct {
	cron      *cron.Cron
	entryID   cron.EntryID
	spec      string
	outputs   []string
	report    config.ReportConfig
	timeout   time.Duration
	generator ReportGenerator
	exporter  ReportExporter
	metrics   *infrastructure.BusinessMetrics
	logger    *slog.Logger

	mu      sync.Mutex
	ctx     context.Context
	started bool
	status  services.ScheduleStatus
}

// New creates a scheduler for cfg. An empty cfg.Spec yields a disabled
// scheduler whose Start and Stop do nothing.
func New(cfg config.ScheduleConfig, report config.ReportConfig, timeout time.Duration,
	generator ReportGenerator, exporter ReportExporter,
	metrics *infrastructure.BusinessMetrics, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "scheduler"))

	s := &Scheduler{
		spec:      cfg.Spec,
		outputs:   append([]string(nil), cfg.Outputs...),
		report:    report,
		timeout:   timeout,
		generator: generator,
		exporter:  exporter,
		metrics:   metrics,
		logger:    logger,
		ctx:       context.Background(),
		status: services.ScheduleStatus{
			Enabled: cfg.Spec != "",
			Spec:    cfg.Spec,
			Outputs: append([]string(nil), cfg.Outputs...),
		},
	}
	if cfg.Spec == "" {
		return s, nil
	}

	cronLogger := &slogCronLogger{logger: logger}
	s.cron = cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	id, err := s.cron.AddFunc(cfg.Spec, s.tick)
	if err != nil {
		return nil, apperrors.NewConfigError(fmt.Sprintf("invalid schedule spec %q", cfg.Spec), err)
	}
	s.entryID = id
	return s, nil
}

// Enabled reports whether a schedule is configured
func (s *Scheduler) Enabled() bool {
	return s.cron != nil
}

// Start starts the cron loop. Ticks derive their context from ctx.
func (s *Scheduler) Start(ctx context.Context) {
	if s.cron == nil {
		return
	}

	s.mu.Lock()
	s.ctx = ctx
	s.started = true
	s.mu.Unlock()

	s.cron.Start()
	s.logger.InfoContext(ctx, "scheduler started",
		slog.String("spec", s.spec),
		slog.Any("outputs", s.outputs))
}

// Stop stops the cron loop and waits for a running export to finish or ctx
// to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}

	done := s.cron.Stop()
	s.mu.Lock()
	s.started = false
	s.mu.Unlock()

	select {
	case <-done.Done():
		s.logger.InfoContext(ctx, "scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// RunNow runs one export synchronously outside the schedule.
func (s *Scheduler) RunNow(ctx context.Context) error {
	return s.run(ctx)
}

// Status returns a snapshot of the schedule state
func (s *Scheduler) Status() services.ScheduleStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := s.status
	status.Outputs = append([]string(nil), s.status.Outputs...)
	if s.cron != nil && s.started {
		if next := s.cron.Entry(s.entryID).Next; !next.IsZero() {
			status.NextRun = &next
		}
	}
	return status
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	// A failed tick is recorded in the status and does not stop the schedule.
	_ = s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) error {
	ctx = infrastructure.EnsureTraceID(ctx)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	written, err := s.export(ctx)
	finished := time.Now().UTC()

	s.mu.Lock()
	s.status.Runs++
	s.status.LastRun = &finished
	if err != nil {
		s.status.Failures++
		s.status.LastError = err.Error()
	} else {
		s.status.LastSuccess = &finished
		s.status.LastError = ""
	}
	s.mu.Unlock()

	infrastructure.RecordScheduledRun(ctx, s.metrics, err == nil)

	if err != nil {
		s.logger.ErrorContext(ctx, "scheduled export failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
		return err
	}

	s.logger.InfoContext(ctx, "scheduled export completed",
		slog.Any("files", written),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (s *Scheduler) export(ctx context.Context) ([]string, error) {
	doc, err := s.generator.Generate(ctx, services.ReportRequest{
		Year:    s.report.Year,
		Count:   s.report.Count,
		Trigger: services.TriggerSchedule,
	})
	if err != nil {
		return nil, err
	}
	return s.exporter.ExportAll(s.outputs, doc)
}

// slogCronLogger adapts slog to cron.Logger
type slogCronLogger struct {
	logger *slog.Logger
}

func (l *slogCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l *slogCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	args := append([]interface{}{slog.String("error", err.Error())}, keysAndValues...)
	l.logger.Error("cron: "+msg, args...)
}
