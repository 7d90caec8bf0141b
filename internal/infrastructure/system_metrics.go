package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// SystemStats is a snapshot of process resource usage
type SystemStats struct {
	GoRoutines      int64         `json:"goroutines"`
	MemoryAllocated int64         `json:"memory_allocated_bytes"`
	MemorySystem    int64         `json:"memory_system_bytes"`
	GCCount         int64         `json:"gc_count"`
	Uptime          time.Duration `json:"-"`
	UptimeSeconds   float64       `json:"uptime_seconds"`
}

// CollectSystemStats reads the Go runtime counters.
func CollectSystemStats(startTime time.Time) SystemStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	uptime := time.Since(startTime)
	return SystemStats{
		GoRoutines:      int64(runtime.NumGoroutine()),
		MemoryAllocated: int64(mem.Alloc),
		MemorySystem:    int64(mem.Sys),
		GCCount:         int64(mem.NumGC),
		Uptime:          uptime,
		UptimeSeconds:   uptime.Seconds(),
	}
}

// RegisterSystemMetrics exposes runtime gauges observed at collection time.
func RegisterSystemMetrics(meter metric.Meter, startTime time.Time) error {
	goRoutines, err := meter.Int64ObservableGauge(
		"system_goroutines",
		metric.WithDescription("Number of active goroutines"),
	)
	if err != nil {
		return err
	}

	memoryAllocated, err := meter.Int64ObservableGauge(
		"system_memory_allocated_bytes",
		metric.WithDescription("Heap bytes allocated and in use"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return err
	}

	uptime, err := meter.Float64ObservableGauge(
		"system_uptime_seconds",
		metric.WithDescription("Process uptime in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := CollectSystemStats(startTime)
		o.ObserveInt64(goRoutines, stats.GoRoutines)
		o.ObserveInt64(memoryAllocated, stats.MemoryAllocated)
		o.ObserveFloat64(uptime, stats.UptimeSeconds)
		return nil
	}, goRoutines, memoryAllocated, uptime)
	return err
}
