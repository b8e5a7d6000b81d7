package snapshot

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/errors"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/monitoring"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/services"
)

// Document is the serialized form of the full supervisor state. Durations
// cross the wire as integer milliseconds.
type Document struct {
	Services     []ServiceState `json:"services"`
	HealthChecks []HealthCheck  `json:"healthChecks"`
	LastUpdate   time.Time      `json:"lastUpdate"`
}

// ServiceState is the wire form of a service descriptor.
type ServiceState struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Type         string        `json:"type"`
	Dependencies []string      `json:"dependencies,omitempty"`
	Settings     SettingsState `json:"settings"`
	Runtime      RuntimeState  `json:"runtime"`
}

// SettingsState is the wire form of service settings.
type SettingsState struct {
	Enabled               bool  `json:"enabled"`
	AutoStart             bool  `json:"autoStart"`
	RestartOnFailure      bool  `json:"restartOnFailure"`
	MaxRestarts           int   `json:"maxRestarts"`
	HealthCheckIntervalMs int64 `json:"healthCheckIntervalMs"`
}

// RuntimeState is the wire form of service runtime state.
type RuntimeState struct {
	Status       string     `json:"status"`
	LastStart    *time.Time `json:"lastStart,omitempty"`
	LastStop     *time.Time `json:"lastStop,omitempty"`
	RestartCount int        `json:"restartCount"`
}

// HealthCheck is the wire form of a health record.
type HealthCheck struct {
	ServiceID string       `json:"serviceId"`
	Timestamp time.Time    `json:"timestamp"`
	Status    string       `json:"status"`
	Metrics   MetricsState `json:"metrics"`
	Details   string       `json:"details,omitempty"`
}

// MetricsState is the wire form of health metrics.
type MetricsState struct {
	CPU            float64 `json:"cpu"`
	Memory         float64 `json:"memory"`
	ResponseTimeMs int64   `json:"responseTimeMs"`
}

// FromDescriptor converts a descriptor to its wire form.
func FromDescriptor(descriptor services.ServiceDescriptor) ServiceState {
	return ServiceState{
		ID:           descriptor.ID,
		Name:         descriptor.Name,
		Type:         descriptor.Type,
		Dependencies: descriptor.Dependencies,
		Settings: SettingsState{
			Enabled:               descriptor.Settings.Enabled,
			AutoStart:             descriptor.Settings.AutoStart,
			RestartOnFailure:      descriptor.Settings.RestartOnFailure,
			MaxRestarts:           descriptor.Settings.MaxRestarts,
			HealthCheckIntervalMs: descriptor.Settings.HealthCheckInterval.Milliseconds(),
		},
		Runtime: RuntimeState{
			Status:       string(descriptor.Runtime.Status),
			LastStart:    descriptor.Runtime.LastStart,
			LastStop:     descriptor.Runtime.LastStop,
			RestartCount: descriptor.Runtime.RestartCount,
		},
	}
}

// ToDescriptor converts a wire-form service state back to a descriptor,
// validating the status against the closed set.
func (s ServiceState) ToDescriptor() (services.ServiceDescriptor, error) {
	status := services.ServiceStatus(s.Runtime.Status)
	if !status.IsValid() {
		return services.ServiceDescriptor{}, errors.NewValidationError(
			fmt.Sprintf("invalid service status %q in snapshot", s.Runtime.Status), nil,
		).WithContext("service_id", s.ID)
	}

	return services.ServiceDescriptor{
		ID:           s.ID,
		Name:         s.Name,
		Type:         s.Type,
		Dependencies: s.Dependencies,
		Settings: services.ServiceSettings{
			Enabled:             s.Settings.Enabled,
			AutoStart:           s.Settings.AutoStart,
			RestartOnFailure:    s.Settings.RestartOnFailure,
			MaxRestarts:         s.Settings.MaxRestarts,
			HealthCheckInterval: time.Duration(s.Settings.HealthCheckIntervalMs) * time.Millisecond,
		},
		Runtime: services.ServiceRuntime{
			Status:       status,
			LastStart:    s.Runtime.LastStart,
			LastStop:     s.Runtime.LastStop,
			RestartCount: s.Runtime.RestartCount,
		},
	}, nil
}

// FromHealthRecord converts a health record to its wire form.
func FromHealthRecord(record monitoring.HealthRecord) HealthCheck {
	return HealthCheck{
		ServiceID: record.ServiceID,
		Timestamp: record.Timestamp,
		Status:    string(record.Status),
		Metrics: MetricsState{
			CPU:            record.Metrics.CPU,
			Memory:         record.Metrics.Memory,
			ResponseTimeMs: record.Metrics.ResponseTime.Milliseconds(),
		},
		Details: record.Details,
	}
}

// ToHealthRecord converts a wire-form health check back to a record.
func (h HealthCheck) ToHealthRecord() (monitoring.HealthRecord, error) {
	status := monitoring.HealthStatus(h.Status)
	if !status.IsValid() {
		return monitoring.HealthRecord{}, errors.NewValidationError(
			fmt.Sprintf("invalid health status %q in snapshot", h.Status), nil,
		).WithContext("service_id", h.ServiceID)
	}

	return monitoring.HealthRecord{
		ServiceID: h.ServiceID,
		Timestamp: h.Timestamp,
		Status:    status,
		Metrics: monitoring.HealthMetrics{
			CPU:          h.Metrics.CPU,
			Memory:       h.Metrics.Memory,
			ResponseTime: time.Duration(h.Metrics.ResponseTimeMs) * time.Millisecond,
		},
		Details: h.Details,
	}, nil
}

// Encode serializes a document to indented JSON.
func Encode(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.NewInternalError("failed to encode snapshot", err)
	}
	return data, nil
}

// Decode parses a snapshot document.
func Decode(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, errors.NewValidationError("failed to decode snapshot", err)
	}
	return doc, nil
}
