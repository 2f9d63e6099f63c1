package services

import (
	"context"

	"gorm.io/gorm"

	"destinpq/internal/database"
	"destinpq/internal/metrics"
)

// HealthResult is the body of GET /health
type HealthResult struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Version  string `json:"version,omitempty"`
	Database string `json:"database,omitempty"`
}

// HealthService implements the health check
type HealthService struct {
	db      *gorm.DB
	name    string
	version string
}

// NewHealthService creates a new health service. db may be nil.
func NewHealthService(db *gorm.DB, name, version string) *HealthService {
	return &HealthService{db: db, name: name, version: version}
}

// Check reports service health; a failing database degrades the status
func (s *HealthService) Check(ctx context.Context) *HealthResult {
	result := &HealthResult{Status: "healthy", Service: s.name, Version: s.version}
	if s.db == nil {
		return result
	}

	if err := database.HealthCheck(ctx, s.db); err != nil {
		result.Status = "degraded"
		result.Database = "unreachable"
		return result
	}
	result.Database = "ok"

	if stats, err := database.GetStats(s.db); err == nil {
		metrics.UpdateDBConnections(stats.InUse, stats.Idle)
	}
	return result
}
