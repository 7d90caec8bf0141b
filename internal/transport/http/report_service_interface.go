package http

import (
	"context"

	"github.com/almk-dev/nadac/internal/services"
	"github.com/almk-dev/nadac/pkg/contracts/domain"
)

// ReportServiceInterface defines the interface for report generation
type ReportServiceInterface interface {
	Generate(ctx context.Context, req services.ReportRequest) (*domain.PriceChangeReport, error)
}

// HealthServiceInterface defines the interface for health checks
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) map[string]string
	ReadinessCheck(ctx context.Context) (map[string]string, bool)
}
