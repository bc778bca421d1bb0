package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"regpulse/pkg/contracts"
)

// DatasetStatusProvider reports whether the dataset is loaded.
type DatasetStatusProvider interface {
	Status() DatasetStatus
}

// HealthService provides health check functionality
type HealthService struct {
	version   contracts.VersionInfo
	dataset   DatasetStatusProvider
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Dataset *DatasetStatus `json:"dataset,omitempty"`
}

// NewHealthService creates a health service for the given dataset.
func NewHealthService(dataset DatasetStatusProvider, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   contracts.GetVersionInfo(),
		dataset:   dataset,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	data := hs.checkDataHealth()
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version.Version,
		Services:  map[string]interface{}{"data": data},
	}
	if data.Status != "ready" {
		status.Status = "degraded"
	}

	hs.logger.DebugContext(ctx, "health check completed", slog.String("status", status.Status))
	return status
}

// ReadinessCheck reports ready only once the dataset is loaded. The second
// result is false when the service should not receive traffic.
func (hs *HealthService) ReadinessCheck(ctx context.Context) (HealthStatus, bool) {
	data := hs.checkDataHealth()
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version.Version,
		Services:  map[string]interface{}{"data": data},
	}

	if data.Status != "ready" {
		status.Status = "not_ready"
		hs.logger.WarnContext(ctx, "readiness check failed", slog.String("reason", data.Message))
		return status, false
	}
	return status, true
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version.Version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns build information plus process uptime.
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.version.Version,
		"api_version":  hs.version.APIVersion,
		"go_version":   hs.version.GoVersion,
		"platform":     hs.version.Platform,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
	if hs.version.GitCommit != "" {
		result["git_commit"] = hs.version.GitCommit
	}
	if hs.version.BuildTime != "" {
		result["build_time"] = hs.version.BuildTime
	}
	if hs.version.Modified {
		result["modified"] = true
	}
	return result
}

// checkDataHealth checks data service health
func (hs *HealthService) checkDataHealth() ServiceHealth {
	if hs.dataset == nil {
		return ServiceHealth{Status: "not_ready", Message: "data service not initialized"}
	}

	ds := hs.dataset.Status()
	if !ds.Loaded {
		msg := "dataset not loaded"
		if ds.Error != "" {
			msg = "dataset load failed: " + ds.Error
		}
		return ServiceHealth{Status: "not_ready", Message: msg, Dataset: &ds}
	}

	return ServiceHealth{Status: "ready", Message: "dataset loaded", Dataset: &ds}
}
