package events

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/logging"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/monitoring"
)

// EventType classifies a lifecycle transition.
type EventType string

const (
	EventRegistered EventType = "registered"
	EventStarting   EventType = "starting"
	EventStarted    EventType = "started"
	EventStopping   EventType = "stopping"
	EventStopped    EventType = "stopped"
	EventRestarted  EventType = "restarted"
	EventFailed     EventType = "failed"
)

// LifecycleEvent is an immutable record of a lifecycle transition.
type LifecycleEvent struct {
	ID        string
	ServiceID string
	Type      EventType
	Timestamp time.Time
	Payload   map[string]string
}

// DefaultHealthRetention is the per-service health history cap applied
// when the recorder is created with a non-positive retention.
const DefaultHealthRetention = 1000

// Recorder is the append-only log of lifecycle events and health records.
// Entries are never mutated after append; health history beyond the
// retention cap is pruned oldest-first.
type Recorder struct {
	mutex     sync.RWMutex
	events    []LifecycleEvent
	health    map[string][]monitoring.HealthRecord
	retention int
	logger    logging.Logger
}

// NewRecorder creates an event recorder with the given per-service health
// history retention cap.
func NewRecorder(retention int, logger logging.Logger) *Recorder {
	if retention <= 0 {
		retention = DefaultHealthRetention
	}
	return &Recorder{
		health:    make(map[string][]monitoring.HealthRecord),
		retention: retention,
		logger:    logger,
	}
}

// RecordEvent appends a lifecycle event and returns it.
func (r *Recorder) RecordEvent(serviceID string, eventType EventType, payload map[string]string) LifecycleEvent {
	event := LifecycleEvent{
		ID:        uuid.NewString(),
		ServiceID: serviceID,
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   payload,
	}

	r.mutex.Lock()
	r.events = append(r.events, event)
	r.mutex.Unlock()

	r.logger.Debugf("Lifecycle event recorded, id: %s, type: %s", serviceID, eventType)
	return event
}

// RecordHealth appends a health record for its service.
func (r *Recorder) RecordHealth(record monitoring.HealthRecord) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	history := append(r.health[record.ServiceID], record)
	if len(history) > r.retention {
		history = history[len(history)-r.retention:]
	}
	r.health[record.ServiceID] = history
}

// Events returns all lifecycle events in chronological order.
func (r *Recorder) Events() []LifecycleEvent {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]LifecycleEvent, len(r.events))
	copy(out, r.events)
	return out
}

// EventsFor returns the lifecycle events of one service in chronological
// order.
func (r *Recorder) EventsFor(serviceID string) []LifecycleEvent {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var out []LifecycleEvent
	for _, event := range r.events {
		if event.ServiceID == serviceID {
			out = append(out, event)
		}
	}
	return out
}

// HealthHistory returns the retained health records of one service in
// chronological order.
func (r *Recorder) HealthHistory(serviceID string) []monitoring.HealthRecord {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	history := r.health[serviceID]
	out := make([]monitoring.HealthRecord, len(history))
	copy(out, history)
	return out
}

// LatestHealth returns the most recent health record of a service.
func (r *Recorder) LatestHealth(serviceID string) (monitoring.HealthRecord, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	history := r.health[serviceID]
	if len(history) == 0 {
		return monitoring.HealthRecord{}, false
	}
	return history[len(history)-1], true
}

// AllHealth returns the retained health records of every service merged
// into one chronologically ordered slice.
func (r *Recorder) AllHealth() []monitoring.HealthRecord {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var out []monitoring.HealthRecord
	for _, history := range r.health {
		out = append(out, history...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// ReplaceHealth replaces the entire health history, used when importing a
// snapshot. Records are grouped by service; per-service order is kept.
func (r *Recorder) ReplaceHealth(records []monitoring.HealthRecord) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.health = make(map[string][]monitoring.HealthRecord)
	for _, record := range records {
		r.health[record.ServiceID] = append(r.health[record.ServiceID], record)
	}
	for serviceID, history := range r.health {
		if len(history) > r.retention {
			r.health[serviceID] = history[len(history)-r.retention:]
		}
	}
}

// DropService removes a deregistered service's health history. Lifecycle
// events are kept for audit.
func (r *Recorder) DropService(serviceID string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	delete(r.health, serviceID)
}
