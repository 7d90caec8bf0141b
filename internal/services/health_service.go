package services

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/almk-dev/nadac/internal/infrastructure"
)

// Health states
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// ScheduleStatus describes the scheduled export job
type ScheduleStatus struct {
	Enabled     bool       `json:"enabled"`
	Spec        string     `json:"spec,omitempty"`
	Outputs     []string   `json:"outputs,omitempty"`
	Runs        int64      `json:"runs"`
	Failures    int64      `json:"failures"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	NextRun     *time.Time `json:"next_run,omitempty"`
}

// ScheduleReporter exposes the scheduled export state
type ScheduleReporter interface {
	Status() ScheduleStatus
}

// DatasetLocator resolves the dataset a report would read
type DatasetLocator interface {
	ResolveDataset() (string, error)
}

// ServiceHealth represents individual component health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Path    string `json:"path,omitempty"`
	Size    int64  `json:"size_bytes,omitempty"`
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                      `json:"status"`
	Timestamp time.Time                   `json:"timestamp"`
	Version   string                      `json:"version"`
	Uptime    string                      `json:"uptime"`
	Runtime   map[string]interface{}      `json:"runtime,omitempty"`
	Dataset   ServiceHealth               `json:"dataset"`
	Schedule  *ScheduleStatus             `json:"schedule,omitempty"`
	System    *infrastructure.SystemStats `json:"system,omitempty"`
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	datasets  DatasetLocator
	schedule  ScheduleReporter
	startTime time.Time
	logger    *slog.Logger
}

// NewHealthService creates a health service. schedule may be nil when no
// export schedule is configured.
func NewHealthService(version string, datasets DatasetLocator, schedule ScheduleReporter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		datasets:  datasets,
		schedule:  schedule,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck reports overall health. A missing dataset degrades the service
// since every report request would fail.
func (s *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	stats := infrastructure.CollectSystemStats(s.startTime)
	status := HealthStatus{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC(),
		Version:   s.version,
		Uptime:    stats.Uptime.Round(time.Second).String(),
		Runtime: map[string]interface{}{
			"go_version": runtime.Version(),
			"os":         runtime.GOOS,
			"arch":       runtime.GOARCH,
		},
		Dataset: s.datasetHealth(ctx),
		System:  &stats,
	}

	if status.Dataset.Status != StatusHealthy {
		status.Status = StatusDegraded
	}

	if s.schedule != nil {
		sched := s.schedule.Status()
		status.Schedule = &sched
	}
	return status
}

// LivenessCheck reports that the process is serving
func (s *HealthService) LivenessCheck(ctx context.Context) map[string]string {
	return map[string]string{"status": "alive"}
}

// ReadinessCheck reports whether reports can be served
func (s *HealthService) ReadinessCheck(ctx context.Context) (map[string]string, bool) {
	health := s.datasetHealth(ctx)
	if health.Status != StatusHealthy {
		return map[string]string{"status": "not_ready", "reason": health.Message}, false
	}
	return map[string]string{"status": "ready"}, true
}

func (s *HealthService) datasetHealth(ctx context.Context) ServiceHealth {
	if s.datasets == nil {
		return ServiceHealth{Status: StatusDegraded, Message: "no dataset configured"}
	}

	path, err := s.datasets.ResolveDataset()
	if err != nil {
		s.logger.WarnContext(ctx, "dataset not available", slog.String("error", err.Error()))
		return ServiceHealth{Status: StatusDegraded, Message: err.Error()}
	}

	info, err := os.Stat(path)
	if err != nil {
		s.logger.WarnContext(ctx, "dataset not readable",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return ServiceHealth{Status: StatusDegraded, Message: err.Error(), Path: path}
	}
	return ServiceHealth{Status: StatusHealthy, Path: path, Size: info.Size()}
}
