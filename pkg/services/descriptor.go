package services

import "time"

// ServiceStatus represents the current lifecycle state of a service.
type ServiceStatus string

const (
	// ServiceStatusStopped means the service is not running (initial
	// state, after a clean stop, or pinned after the restart cap).
	ServiceStatusStopped ServiceStatus = "stopped"

	// ServiceStatusStarting means a start operation is in progress.
	ServiceStatusStarting ServiceStatus = "starting"

	// ServiceStatusRunning means the service is running normally.
	ServiceStatusRunning ServiceStatus = "running"

	// ServiceStatusStopping means a stop operation is in progress.
	ServiceStatusStopping ServiceStatus = "stopping"

	// ServiceStatusRestarting means an automatic or manual restart is in
	// progress, between its stop and start phases.
	ServiceStatusRestarting ServiceStatus = "restarting"

	// ServiceStatusFailed means a start or stop hook failed.
	ServiceStatusFailed ServiceStatus = "failed"
)

// IsValid reports whether the status is one of the closed set.
func (s ServiceStatus) IsValid() bool {
	switch s {
	case ServiceStatusStopped, ServiceStatusStarting, ServiceStatusRunning,
		ServiceStatusStopping, ServiceStatusRestarting, ServiceStatusFailed:
		return true
	default:
		return false
	}
}

// ServiceSettings is the per-service supervision configuration.
type ServiceSettings struct {
	Enabled             bool          `yaml:"enabled"`
	AutoStart           bool          `yaml:"auto_start"`
	RestartOnFailure    bool          `yaml:"restart_on_failure"`
	MaxRestarts         int           `yaml:"max_restarts"`
	HealthCheckInterval time.Duration `yaml:"health_check_interval"`
}

// ServiceRuntime is the mutable runtime state of a service. It is owned
// by the supervisor; callers only ever see copies.
type ServiceRuntime struct {
	Status       ServiceStatus
	LastStart    *time.Time
	LastStop     *time.Time
	RestartCount int
}

// ServiceDescriptor describes one supervised service: identity, the ids
// it depends on, its supervision settings and its runtime state.
type ServiceDescriptor struct {
	ID           string
	Name         string
	Type         string
	Dependencies []string
	Settings     ServiceSettings
	Runtime      ServiceRuntime
}

// Clone returns a deep copy of the descriptor.
func (d ServiceDescriptor) Clone() ServiceDescriptor {
	out := d
	if d.Dependencies != nil {
		out.Dependencies = make([]string, len(d.Dependencies))
		copy(out.Dependencies, d.Dependencies)
	}
	if d.Runtime.LastStart != nil {
		t := *d.Runtime.LastStart
		out.Runtime.LastStart = &t
	}
	if d.Runtime.LastStop != nil {
		t := *d.Runtime.LastStop
		out.Runtime.LastStop = &t
	}
	return out
}
