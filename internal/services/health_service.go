package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"namefinder/internal/dataprocessing"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	ds        *dataprocessing.Dataset
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Dataset   *DatasetStatus         `json:"dataset,omitempty"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
}

// DatasetStatus describes the dataset being served
type DatasetStatus struct {
	ID        string         `json:"id"`
	BuiltAt   time.Time      `json:"built_at"`
	Mode      string         `json:"mode"`
	MinYear   int            `json:"min_year"`
	MaxYear   int            `json:"max_year"`
	TableYear int            `json:"table_year,omitempty"`
	Tables    map[string]int `json:"tables"`
}

// NewHealthService creates a health service reporting on ds
func NewHealthService(version string, ds *dataprocessing.Dataset, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		ds:        ds,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns overall health status. The server only starts once
// its dataset is built, so a missing dataset means the process is not
// ready.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}

	if hs.ds == nil {
		status.Status = "not_ready"
		hs.logger.WarnContext(ctx, "Health check without dataset")
		return status
	}

	mode := "full"
	if !hs.ds.Full() {
		mode = "prediction_only"
	}
	status.Dataset = &DatasetStatus{
		ID:        hs.ds.ID,
		BuiltAt:   hs.ds.BuiltAt,
		Mode:      mode,
		MinYear:   hs.ds.MinYear,
		MaxYear:   hs.ds.MaxYear,
		TableYear: hs.ds.TableYear,
		Tables:    hs.ds.TableSizes(),
	}

	hs.logger.DebugContext(ctx, "Health check",
		slog.String("status", status.Status),
		slog.String("dataset_id", hs.ds.ID))
	return status
}
