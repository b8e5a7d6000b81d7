package supervision

import (
	"sort"
	"sync"
	"time"

	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/depgraph"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/errors"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/logging"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/monitoring"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/services"
)

// Registration pairs a descriptor with the unit implementing its hooks.
type Registration struct {
	Descriptor services.ServiceDescriptor
	Unit       services.Unit
}

// serviceEntry is the registry's record for one service. opMu serializes
// whole lifecycle operations on the service; runtime bookkeeping fields
// are additionally guarded by mu so queries never block behind a running
// hook. opMu for distinct services is only ever acquired following
// dependency edges (dependent before dependency), which keeps nested
// acquisition deadlock-free on an acyclic graph.
type serviceEntry struct {
	opMu sync.Mutex

	mu         sync.Mutex
	descriptor services.ServiceDescriptor
	monitor    monitoring.HealthMonitor
	monitorGen uint64

	unit    services.Unit
	machine *ServiceStateMachine
}

func newServiceEntry(descriptor services.ServiceDescriptor, unit services.Unit, initial services.ServiceStatus, logger logging.Logger) *serviceEntry {
	descriptor.Runtime.Status = initial
	return &serviceEntry{
		descriptor: descriptor,
		unit:       unit,
		machine:    NewServiceStateMachine(descriptor.ID, initial, logger),
	}
}

// snapshotDescriptor returns a deep copy with the live machine status.
func (e *serviceEntry) snapshotDescriptor() services.ServiceDescriptor {
	e.mu.Lock()
	defer e.mu.Unlock()

	descriptor := e.descriptor.Clone()
	descriptor.Runtime.Status = e.machine.Current()
	return descriptor
}

func (e *serviceEntry) settings() services.ServiceSettings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.descriptor.Settings
}

func (e *serviceEntry) restartCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.descriptor.Runtime.RestartCount
}

func (e *serviceEntry) incrementRestartCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.descriptor.Runtime.RestartCount++
	return e.descriptor.Runtime.RestartCount
}

// markStarted records the start time. A manual start wipes the restart
// counter; a start performed as part of an automatic restart keeps it.
func (e *serviceEntry) markStarted(now time.Time, manual bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.descriptor.Runtime.LastStart = &now
	if manual {
		e.descriptor.Runtime.RestartCount = 0
	}
}

func (e *serviceEntry) markStopped(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.descriptor.Runtime.LastStop = &now
}

// setMonitorGen records the generation of the armed monitor. Generations
// come from a supervisor-wide sequence and are never reused, so a callback
// from any earlier monitor (even one armed before a snapshot import
// replaced this entry) can never match.
func (e *serviceEntry) setMonitorGen(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.monitorGen = gen
}

func (e *serviceEntry) currentMonitorGen() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.monitorGen
}

func (e *serviceEntry) setMonitor(monitor monitoring.HealthMonitor) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.monitor = monitor
}

// takeMonitor detaches the current monitor so the caller can stop it
// outside the bookkeeping lock. The generation is zeroed (never an
// allocated value) so callbacks still in flight become no-ops.
func (e *serviceEntry) takeMonitor() monitoring.HealthMonitor {
	e.mu.Lock()
	defer e.mu.Unlock()

	monitor := e.monitor
	e.monitor = nil
	e.monitorGen = 0
	return monitor
}

// registry holds the supervised services. Structural changes (add,
// remove) and graph reads are serialized by its own mutex; per-service
// lifecycle state lives in the entries.
type registry struct {
	mutex   sync.RWMutex
	entries map[string]*serviceEntry
	logger  logging.Logger
}

func newRegistry(logger logging.Logger) *registry {
	return &registry{
		entries: make(map[string]*serviceEntry),
		logger:  logger,
	}
}

// add registers one service. The duplicate check and the cycle check run
// under the same lock so the registry never holds a cyclic graph.
func (r *registry) add(descriptor services.ServiceDescriptor, unit services.Unit) (*serviceEntry, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.entries[descriptor.ID]; exists {
		return nil, errors.NewValidationError("service already registered", nil).WithContext("service_id", descriptor.ID)
	}

	graph := r.graphUnsafe()
	graph[descriptor.ID] = descriptor.Dependencies
	if err := depgraph.CheckAcyclic(graph); err != nil {
		return nil, err
	}

	entry := newServiceEntry(descriptor, unit, services.ServiceStatusStopped, r.logger)
	r.entries[descriptor.ID] = entry
	return entry, nil
}

// addBatch registers a set of services atomically. Any duplicate or
// cycle rejects the whole batch and leaves the registry untouched.
func (r *registry) addBatch(registrations []Registration) ([]*serviceEntry, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	graph := r.graphUnsafe()
	for _, registration := range registrations {
		id := registration.Descriptor.ID
		if _, exists := r.entries[id]; exists {
			return nil, errors.NewValidationError("service already registered", nil).WithContext("service_id", id)
		}
		if _, dup := graph[id]; dup {
			return nil, errors.NewValidationError("duplicate service id in batch", nil).WithContext("service_id", id)
		}
		graph[id] = registration.Descriptor.Dependencies
	}
	if err := depgraph.CheckAcyclic(graph); err != nil {
		return nil, err
	}

	added := make([]*serviceEntry, 0, len(registrations))
	for _, registration := range registrations {
		entry := newServiceEntry(registration.Descriptor, registration.Unit, services.ServiceStatusStopped, r.logger)
		r.entries[registration.Descriptor.ID] = entry
		added = append(added, entry)
	}
	return added, nil
}

// remove deregisters a service. Only Stopped or Failed services may
// leave the registry, and nothing may still depend on them.
func (r *registry) remove(id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	entry, exists := r.entries[id]
	if !exists {
		return errors.NewNotFoundError("service not found", nil).WithContext("service_id", id)
	}

	status := entry.machine.Current()
	if status != services.ServiceStatusStopped && status != services.ServiceStatusFailed {
		return errors.NewInvalidStateError("service must be stopped before deregistration", nil).
			WithContext("service_id", id).WithContext("current_status", string(status))
	}

	for otherID, other := range r.entries {
		if otherID == id {
			continue
		}
		for _, dep := range other.snapshotDescriptor().Dependencies {
			if dep == id {
				return errors.NewValidationError("service is still a dependency of another service", nil).
					WithContext("service_id", id).WithContext("dependent_id", otherID)
			}
		}
	}

	delete(r.entries, id)
	return nil
}

func (r *registry) get(id string) (*serviceEntry, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	entry, exists := r.entries[id]
	if !exists {
		return nil, errors.NewNotFoundError("service not found", nil).WithContext("service_id", id)
	}
	return entry, nil
}

// list returns all entries sorted by id for stable output.
func (r *registry) list() []*serviceEntry {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]*serviceEntry, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.entries[id])
	}
	return out
}

// graph returns the current dependency graph as a value copy.
func (r *registry) graph() depgraph.Graph {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.graphUnsafe()
}

func (r *registry) graphUnsafe() depgraph.Graph {
	graph := make(depgraph.Graph, len(r.entries))
	for id, entry := range r.entries {
		entry.mu.Lock()
		deps := make([]string, len(entry.descriptor.Dependencies))
		copy(deps, entry.descriptor.Dependencies)
		entry.mu.Unlock()
		graph[id] = deps
	}
	return graph
}

// replaceAll swaps the full registry contents, used by snapshot import.
// Callers must have stopped every monitor of the outgoing entries.
func (r *registry) replaceAll(entries map[string]*serviceEntry) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.entries = entries
}
