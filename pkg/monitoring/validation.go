package monitoring

import (
	"time"

	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/errors"
)

// ValidateRestartPolicy validates a per-service restart policy.
func ValidateRestartPolicy(policy RestartPolicy) error {
	if policy.MaxRestarts < 0 {
		return errors.NewValidationError("max restarts cannot be negative", nil)
	}
	return nil
}

// ValidateMonitorOptions validates health monitor options.
func ValidateMonitorOptions(options MonitorOptions) error {
	if options.ServiceID == "" {
		return errors.NewValidationError("service ID cannot be empty", nil)
	}

	if options.Interval <= 0 {
		return errors.NewValidationError("health check interval must be positive", nil)
	}

	if options.Timeout <= 0 {
		return errors.NewValidationError("health check timeout must be positive", nil)
	}

	if options.Timeout >= options.Interval {
		return errors.NewValidationError("health check timeout must be less than interval", nil)
	}

	return nil
}

// DeriveProbeTimeout picks a probe timeout for an interval: half the
// interval, capped at 5 seconds.
func DeriveProbeTimeout(interval time.Duration) time.Duration {
	timeout := interval / 2
	if timeout > 5*time.Second {
		timeout = 5 * time.Second
	}
	return timeout
}
