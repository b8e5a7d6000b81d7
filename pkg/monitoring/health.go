package monitoring

import (
	"time"
)

// HealthStatus is the outcome of a single health probe.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// IsValid reports whether the status is one of the closed set.
func (s HealthStatus) IsValid() bool {
	switch s {
	case HealthStatusHealthy, HealthStatusDegraded, HealthStatusUnhealthy:
		return true
	default:
		return false
	}
}

// HealthMetrics carries the measurements attached to a probe result.
// ResponseTime is always filled in by the monitor; CPU and Memory are
// whatever the unit chooses to report (zero when not measured).
type HealthMetrics struct {
	CPU          float64
	Memory       float64
	ResponseTime time.Duration
}

// HealthReport is what a unit's CheckHealth hook returns.
type HealthReport struct {
	Status  HealthStatus
	Metrics HealthMetrics
	Details string
}

// HealthRecord is an immutable, timestamped probe result for a service.
// Records are append-only and ordered by timestamp per service.
type HealthRecord struct {
	ServiceID string
	Timestamp time.Time
	Status    HealthStatus
	Metrics   HealthMetrics
	Details   string
}
