package supervision

import (
	"fmt"
	"sync"
	"time"

	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/errors"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/logging"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/services"
)

// StateTransition represents a state transition with metadata
type StateTransition struct {
	From      services.ServiceStatus
	To        services.ServiceStatus
	Operation string
	Timestamp time.Time
	Error     error
}

// ServiceStateMachine manages service status transitions with validation
type ServiceStateMachine struct {
	serviceID        string
	currentStatus    services.ServiceStatus
	transitions      []StateTransition
	validTransitions map[services.ServiceStatus][]services.ServiceStatus
	mutex            sync.RWMutex
	logger           logging.Logger
}

// NewServiceStateMachine creates a state machine at the given initial
// status (Stopped for fresh registrations, the restored status for
// snapshot imports).
func NewServiceStateMachine(serviceID string, initial services.ServiceStatus, logger logging.Logger) *ServiceStateMachine {
	sm := &ServiceStateMachine{
		serviceID:     serviceID,
		currentStatus: initial,
		transitions:   make([]StateTransition, 0),
		logger:        logger,
	}

	// Closed transition set: invalid transitions are construction-time
	// errors, not silent state corruption.
	sm.validTransitions = map[services.ServiceStatus][]services.ServiceStatus{
		services.ServiceStatusStopped: {
			services.ServiceStatusStarting, // Start
		},
		services.ServiceStatusStarting: {
			services.ServiceStatusRunning, // start success
			services.ServiceStatusFailed,  // start failure
		},
		services.ServiceStatusRunning: {
			services.ServiceStatusStopping,   // Stop
			services.ServiceStatusRestarting, // Restart
			services.ServiceStatusFailed,     // hook error
		},
		services.ServiceStatusStopping: {
			services.ServiceStatusStopped, // stop success
			services.ServiceStatusFailed,  // stop failure
		},
		services.ServiceStatusRestarting: {
			services.ServiceStatusStarting, // restart retry
			services.ServiceStatusFailed,   // stop phase failure
		},
		services.ServiceStatusFailed: {
			services.ServiceStatusStarting, // retry after failure
			services.ServiceStatusStopping, // explicit stop to clear failure
		},
	}

	return sm
}

// Current returns the current status (thread-safe)
func (sm *ServiceStateMachine) Current() services.ServiceStatus {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.currentStatus
}

// CanTransition checks if a status transition is valid
func (sm *ServiceStateMachine) CanTransition(to services.ServiceStatus) bool {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.canTransitionUnsafe(to)
}

// Transition attempts to transition to a new status with validation
func (sm *ServiceStateMachine) Transition(to services.ServiceStatus, operation string, err error) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	from := sm.currentStatus

	if !sm.canTransitionUnsafe(to) {
		return errors.NewInvalidStateError(
			fmt.Sprintf("invalid status transition from %s to %s for operation %s", from, to, operation),
			nil,
		).WithContext("service_id", sm.serviceID).WithContext("current_status", string(from)).WithContext("target_status", string(to))
	}

	sm.transitions = append(sm.transitions, StateTransition{
		From:      from,
		To:        to,
		Operation: operation,
		Timestamp: time.Now(),
		Error:     err,
	})
	sm.currentStatus = to

	if err != nil {
		sm.logger.Warnf("Service status transition after error, id: %s, %s->%s, operation: %s, error: %v",
			sm.serviceID, from, to, operation, err)
	} else {
		sm.logger.Infof("Service status transition, id: %s, %s->%s, operation: %s",
			sm.serviceID, from, to, operation)
	}

	return nil
}

// canTransitionUnsafe checks transition validity without locking (internal use)
func (sm *ServiceStateMachine) canTransitionUnsafe(to services.ServiceStatus) bool {
	validStates, exists := sm.validTransitions[sm.currentStatus]
	if !exists {
		return false
	}

	for _, validState := range validStates {
		if validState == to {
			return true
		}
	}
	return false
}

// History returns the complete transition history (thread-safe)
func (sm *ServiceStateMachine) History() []StateTransition {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	history := make([]StateTransition, len(sm.transitions))
	copy(history, sm.transitions)
	return history
}
