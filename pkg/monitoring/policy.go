package monitoring

import (
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/logging"
)

// RestartPolicy is the per-service automatic restart configuration.
type RestartPolicy struct {
	RestartOnFailure bool
	MaxRestarts      int
}

// RestartDecision is the policy engine's verdict for an unhealthy record.
type RestartDecision int

const (
	// DecisionNone means the policy takes no action.
	DecisionNone RestartDecision = iota

	// DecisionRestart means the service should be restarted.
	DecisionRestart

	// DecisionStop means the restart cap is exhausted and the service
	// should be stopped permanently until manual intervention.
	DecisionStop
)

func (d RestartDecision) String() string {
	switch d {
	case DecisionRestart:
		return "restart"
	case DecisionStop:
		return "stop"
	default:
		return "none"
	}
}

// RestartPolicyEngine decides between restarting and permanently stopping
// a service whose probe reported unhealthy.
type RestartPolicyEngine struct {
	logger logging.Logger
}

// NewRestartPolicyEngine creates a restart policy engine.
func NewRestartPolicyEngine(logger logging.Logger) *RestartPolicyEngine {
	return &RestartPolicyEngine{logger: logger}
}

// Decide evaluates the restart policy for a service given its current
// restart count. The caller is responsible for executing the decision.
func (e *RestartPolicyEngine) Decide(serviceID string, policy RestartPolicy, restartCount int) RestartDecision {
	if !policy.RestartOnFailure {
		e.logger.Debugf("Restart on failure disabled, no action, id: %s", serviceID)
		return DecisionNone
	}

	if restartCount < policy.MaxRestarts {
		e.logger.Warnf("Unhealthy service will be restarted, id: %s, attempt: %d/%d",
			serviceID, restartCount+1, policy.MaxRestarts)
		return DecisionRestart
	}

	e.logger.Errorf("Restart cap reached, service will be stopped permanently, id: %s, restarts: %d, max: %d",
		serviceID, restartCount, policy.MaxRestarts)
	return DecisionStop
}
