package supervision

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/depgraph"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/errors"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/events"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/logging"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/monitoring"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/services"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/snapshot"
)

// DefaultHookTimeout bounds start and stop hooks that ignore their context.
const DefaultHookTimeout = 30 * time.Second

// Options configures a Supervisor.
type Options struct {
	// HookTimeout bounds each start/stop hook invocation. Zero means
	// DefaultHookTimeout.
	HookTimeout time.Duration

	// ProbeTimeout bounds each health probe. Zero derives a timeout from
	// the service's check interval.
	ProbeTimeout time.Duration
}

// Supervisor is the process-local service lifecycle manager. It starts
// services in dependency order, monitors their health, applies the
// bounded restart policy, and records lifecycle events.
type Supervisor struct {
	options  Options
	registry *registry
	recorder *events.Recorder
	policy   *monitoring.RestartPolicyEngine
	logger   logging.Logger

	// monitorSeq allocates monitor generations for every entry, including
	// entries rebuilt by snapshot import. Generations start at 1 and never
	// repeat, so a callback from a monitor armed before an import can never
	// match a monitor armed after it.
	monitorSeq atomic.Uint64
}

// NewSupervisor creates a supervisor backed by the given event recorder.
func NewSupervisor(options Options, recorder *events.Recorder, logger logging.Logger) *Supervisor {
	if options.HookTimeout <= 0 {
		options.HookTimeout = DefaultHookTimeout
	}

	return &Supervisor{
		options:  options,
		registry: newRegistry(logger),
		recorder: recorder,
		policy:   monitoring.NewRestartPolicyEngine(logger),
		logger:   logger,
	}
}

// Recorder exposes the event recorder for query surfaces.
func (s *Supervisor) Recorder() *events.Recorder {
	return s.recorder
}

// Register adds a service to the registry in Stopped status. Dependencies
// may reference services that are not registered yet; only cycles among
// registered services are rejected. If the service is enabled and marked
// auto-start it is started immediately.
func (s *Supervisor) Register(ctx context.Context, descriptor services.ServiceDescriptor, unit services.Unit) error {
	if ctx == nil {
		return errors.NewValidationError("context cannot be nil", nil)
	}
	if unit == nil {
		return errors.NewValidationError("service unit cannot be nil", nil).WithContext("service_id", descriptor.ID)
	}
	if err := services.ValidateDescriptor(descriptor); err != nil {
		return err
	}

	entry, err := s.registry.add(descriptor, unit)
	if err != nil {
		return err
	}

	s.recorder.RecordEvent(descriptor.ID, events.EventRegistered, nil)
	s.logger.Infof("Service registered, id: %s, type: %s, dependencies: %v",
		descriptor.ID, descriptor.Type, descriptor.Dependencies)

	if descriptor.Settings.Enabled && descriptor.Settings.AutoStart {
		if err := s.startEntry(ctx, entry, true); err != nil {
			s.logger.Errorf("Auto-start failed, id: %s, error: %v", descriptor.ID, err)
			return err
		}
	}
	return nil
}

// RegisterAll registers a batch of services atomically: if any descriptor
// is invalid or the combined graph is cyclic, no service from the batch is
// added. Auto-start services are started after the whole batch is in.
func (s *Supervisor) RegisterAll(ctx context.Context, registrations []Registration) error {
	if ctx == nil {
		return errors.NewValidationError("context cannot be nil", nil)
	}

	for _, registration := range registrations {
		if registration.Unit == nil {
			return errors.NewValidationError("service unit cannot be nil", nil).
				WithContext("service_id", registration.Descriptor.ID)
		}
		if err := services.ValidateDescriptor(registration.Descriptor); err != nil {
			return err
		}
	}

	entries, err := s.registry.addBatch(registrations)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		descriptor := entry.snapshotDescriptor()
		s.recorder.RecordEvent(descriptor.ID, events.EventRegistered, nil)
		s.logger.Infof("Service registered, id: %s, type: %s, dependencies: %v",
			descriptor.ID, descriptor.Type, descriptor.Dependencies)
	}

	collection := errors.NewErrorCollection()
	for _, entry := range entries {
		set := entry.settings()
		if set.Enabled && set.AutoStart {
			if err := s.startEntry(ctx, entry, true); err != nil {
				s.logger.Errorf("Auto-start failed, id: %s, error: %v", entry.snapshotDescriptor().ID, err)
				collection.Add(err)
			}
		}
	}
	return collection.ToError()
}

// Deregister removes a Stopped or Failed service and drops its health
// history. Lifecycle events are retained for audit.
func (s *Supervisor) Deregister(id string) error {
	if err := s.registry.remove(id); err != nil {
		return err
	}

	s.recorder.DropService(id)
	s.logger.Infof("Service deregistered, id: %s", id)
	return nil
}

// Get returns a copy of the service descriptor with live runtime state.
func (s *Supervisor) Get(id string) (services.ServiceDescriptor, error) {
	entry, err := s.registry.get(id)
	if err != nil {
		return services.ServiceDescriptor{}, err
	}
	return entry.snapshotDescriptor(), nil
}

// List returns every registered service sorted by id.
func (s *Supervisor) List() []services.ServiceDescriptor {
	entries := s.registry.list()
	out := make([]services.ServiceDescriptor, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry.snapshotDescriptor())
	}
	return out
}

// ListByStatus returns the services currently in the given status.
func (s *Supervisor) ListByStatus(status services.ServiceStatus) ([]services.ServiceDescriptor, error) {
	if !status.IsValid() {
		return nil, errors.NewValidationError(fmt.Sprintf("invalid service status %q", status), nil)
	}

	var out []services.ServiceDescriptor
	for _, entry := range s.registry.list() {
		if entry.machine.Current() == status {
			out = append(out, entry.snapshotDescriptor())
		}
	}
	return out, nil
}

// Status returns the current lifecycle status of a service.
func (s *Supervisor) Status(id string) (services.ServiceStatus, error) {
	entry, err := s.registry.get(id)
	if err != nil {
		return "", err
	}
	return entry.machine.Current(), nil
}

// Start starts a service after starting its transitive dependencies.
// Starting an already running service is a no-op. A manual start resets
// the restart counter.
func (s *Supervisor) Start(ctx context.Context, id string) error {
	if ctx == nil {
		return errors.NewValidationError("context cannot be nil", nil)
	}

	entry, err := s.registry.get(id)
	if err != nil {
		return err
	}
	return s.startEntry(ctx, entry, true)
}

// startEntry runs the whole start operation for one service under its
// operation lock. Dependencies are started first, recursively, so locks
// are only ever taken along dependency edges.
func (s *Supervisor) startEntry(ctx context.Context, entry *serviceEntry, manual bool) error {
	id := entry.snapshotDescriptor().ID

	if !entry.settings().Enabled {
		return errors.NewValidationError("service is disabled", nil).WithContext("service_id", id)
	}

	entry.opMu.Lock()
	defer entry.opMu.Unlock()

	if entry.machine.Current() == services.ServiceStatusRunning {
		s.logger.Debugf("Service already running, id: %s", id)
		return nil
	}

	if err := s.ensureDependencies(ctx, entry, id); err != nil {
		return err
	}
	return s.startPhaseLocked(ctx, entry, manual)
}

// ensureDependencies brings every direct dependency to Running before the
// caller's start phase. Independent dependencies start concurrently.
func (s *Supervisor) ensureDependencies(ctx context.Context, entry *serviceEntry, id string) error {
	graph := s.registry.graph()
	order, err := depgraph.StartOrder(id, graph)
	if err != nil {
		return err
	}

	// Refuse to build on anything already failed upstream.
	for _, depID := range order {
		depEntry, err := s.registry.get(depID)
		if err != nil {
			return err
		}
		if depEntry.machine.Current() == services.ServiceStatusFailed {
			return errors.NewDependencyFailedError("dependency is in failed status", nil).
				WithContext("service_id", id).WithContext("dependency_id", depID)
		}
	}

	deps := entry.snapshotDescriptor().Dependencies
	if len(deps) == 0 {
		return nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, depID := range deps {
		depEntry, err := s.registry.get(depID)
		if err != nil {
			return err
		}
		group.Go(func() error {
			if err := s.startEntry(groupCtx, depEntry, false); err != nil {
				return errors.NewDependencyFailedError("failed to start dependency", err).
					WithContext("service_id", id).WithContext("dependency_id", depEntry.snapshotDescriptor().ID)
			}
			return nil
		})
	}
	return group.Wait()
}

// startPhaseLocked runs the start hook and transitions. Caller holds opMu.
func (s *Supervisor) startPhaseLocked(ctx context.Context, entry *serviceEntry, manual bool) error {
	id := entry.snapshotDescriptor().ID

	if err := entry.machine.Transition(services.ServiceStatusStarting, "start", nil); err != nil {
		return err
	}
	s.recorder.RecordEvent(id, events.EventStarting, nil)
	s.logger.Infof("Starting service, id: %s", id)

	if err := s.invokeHook(ctx, id, "start", entry.unit.Start); err != nil {
		if terr := entry.machine.Transition(services.ServiceStatusFailed, "start", err); terr != nil {
			s.logger.Errorf("Failed status transition rejected, id: %s, error: %v", id, terr)
		}
		s.recorder.RecordEvent(id, events.EventFailed, map[string]string{
			"operation": "start",
			"error":     err.Error(),
		})
		s.logger.Errorf("Failed to start service, id: %s, error: %v", id, err)

		if ctx.Err() != nil {
			return errors.NewCancelledError("service start cancelled", err).WithContext("service_id", id)
		}
		if errors.IsTimeoutError(err) {
			return err
		}
		return errors.NewStartError("failed to start service", err).WithContext("service_id", id)
	}

	if err := entry.machine.Transition(services.ServiceStatusRunning, "start", nil); err != nil {
		return err
	}
	entry.markStarted(time.Now(), manual)
	s.recorder.RecordEvent(id, events.EventStarted, nil)
	s.armMonitorLocked(entry)
	s.logger.Infof("Service started, id: %s", id)
	return nil
}

// Stop stops a running service. Stopping an already stopped service is a
// no-op. Stopping cancels the health monitor first, so an unhealthy probe
// result can never resurrect a deliberately stopped service.
func (s *Supervisor) Stop(ctx context.Context, id string) error {
	if ctx == nil {
		return errors.NewValidationError("context cannot be nil", nil)
	}

	entry, err := s.registry.get(id)
	if err != nil {
		return err
	}

	entry.opMu.Lock()
	defer entry.opMu.Unlock()
	return s.stopPhaseLocked(ctx, entry, "stop")
}

// stopPhaseLocked runs the stop hook and transitions. Caller holds opMu.
func (s *Supervisor) stopPhaseLocked(ctx context.Context, entry *serviceEntry, operation string) error {
	id := entry.snapshotDescriptor().ID

	if entry.machine.Current() == services.ServiceStatusStopped {
		s.logger.Debugf("Service already stopped, id: %s", id)
		return nil
	}

	s.cancelMonitorLocked(entry)

	if err := entry.machine.Transition(services.ServiceStatusStopping, operation, nil); err != nil {
		return err
	}
	s.recorder.RecordEvent(id, events.EventStopping, nil)
	s.logger.Infof("Stopping service, id: %s", id)

	err := s.invokeHook(ctx, id, "stop", entry.unit.Stop)
	entry.markStopped(time.Now())

	if err != nil {
		if terr := entry.machine.Transition(services.ServiceStatusFailed, operation, err); terr != nil {
			s.logger.Errorf("Failed status transition rejected, id: %s, error: %v", id, terr)
		}
		s.recorder.RecordEvent(id, events.EventFailed, map[string]string{
			"operation": "stop",
			"error":     err.Error(),
		})
		s.logger.Errorf("Failed to stop service, id: %s, error: %v", id, err)
		return errors.NewStopError("failed to stop service", err).WithContext("service_id", id)
	}

	if err := entry.machine.Transition(services.ServiceStatusStopped, operation, nil); err != nil {
		return err
	}
	s.recorder.RecordEvent(id, events.EventStopped, nil)
	s.logger.Infof("Service stopped, id: %s", id)
	return nil
}

// Restart stops and starts a service. The restart counter is consumed
// before the start phase, so a failed start still burns the attempt.
func (s *Supervisor) Restart(ctx context.Context, id string) error {
	if ctx == nil {
		return errors.NewValidationError("context cannot be nil", nil)
	}

	entry, err := s.registry.get(id)
	if err != nil {
		return err
	}

	entry.opMu.Lock()
	defer entry.opMu.Unlock()
	return s.restartLocked(ctx, entry, "")
}

func (s *Supervisor) restartLocked(ctx context.Context, entry *serviceEntry, reason string) error {
	id := entry.snapshotDescriptor().ID
	s.logger.Infof("Restarting service, id: %s", id)

	if entry.machine.Current() == services.ServiceStatusRunning {
		if err := entry.machine.Transition(services.ServiceStatusRestarting, "restart", nil); err != nil {
			return err
		}
		s.cancelMonitorLocked(entry)

		err := s.invokeHook(ctx, id, "stop", entry.unit.Stop)
		entry.markStopped(time.Now())
		if err != nil {
			if terr := entry.machine.Transition(services.ServiceStatusFailed, "restart", err); terr != nil {
				s.logger.Errorf("Failed status transition rejected, id: %s, error: %v", id, terr)
			}
			s.recorder.RecordEvent(id, events.EventFailed, map[string]string{
				"operation": "restart",
				"error":     err.Error(),
			})
			return errors.NewStopError("failed to stop service during restart", err).WithContext("service_id", id)
		}
	}

	count := entry.incrementRestartCount()
	s.logger.Infof("Restart attempt, id: %s, count: %d", id, count)

	if err := s.ensureDependencies(ctx, entry, id); err != nil {
		if terr := entry.machine.Transition(services.ServiceStatusFailed, "restart", err); terr != nil {
			s.logger.Errorf("Failed status transition rejected, id: %s, error: %v", id, terr)
		}
		s.recorder.RecordEvent(id, events.EventFailed, map[string]string{
			"operation": "restart",
			"error":     err.Error(),
		})
		return err
	}

	if err := s.startPhaseLocked(ctx, entry, false); err != nil {
		return err
	}

	payload := map[string]string{}
	if reason != "" {
		payload["reason"] = reason
	}
	s.recorder.RecordEvent(id, events.EventRestarted, payload)
	return nil
}

// StopAll stops every service in reverse dependency order. Individual
// failures are collected; the remaining services are still stopped.
func (s *Supervisor) StopAll(ctx context.Context) error {
	if ctx == nil {
		return errors.NewValidationError("context cannot be nil", nil)
	}

	order := depgraph.Order(s.registry.graph())
	collection := errors.NewErrorCollection()

	for i := len(order) - 1; i >= 0; i-- {
		entry, err := s.registry.get(order[i])
		if err != nil {
			continue
		}

		entry.opMu.Lock()
		if entry.machine.Current() != services.ServiceStatusFailed {
			if err := s.stopPhaseLocked(ctx, entry, "stop"); err != nil {
				collection.Add(err)
			}
		}
		entry.opMu.Unlock()
	}
	return collection.ToError()
}

// armMonitorLocked starts a health monitor for a freshly running service.
// Caller holds opMu. Services without an interval or without a health
// check hook are not monitored.
func (s *Supervisor) armMonitorLocked(entry *serviceEntry) {
	descriptor := entry.snapshotDescriptor()
	id := descriptor.ID
	interval := descriptor.Settings.HealthCheckInterval
	if interval <= 0 {
		return
	}

	checkable, ok := entry.unit.(services.HealthCheckable)
	if !ok {
		s.logger.Debugf("Service has no health check hook, monitoring skipped, id: %s", id)
		return
	}

	timeout := s.options.ProbeTimeout
	if timeout <= 0 || timeout >= interval {
		timeout = monitoring.DeriveProbeTimeout(interval)
	}

	gen := s.monitorSeq.Add(1)
	monitor := monitoring.NewHealthMonitor(
		monitoring.MonitorOptions{ServiceID: id, Interval: interval, Timeout: timeout},
		checkable.CheckHealth,
		s.recorder.RecordHealth,
		func(record monitoring.HealthRecord) {
			s.handleUnhealthy(id, gen, record)
		},
		s.logger,
	)

	if err := monitor.Start(); err != nil {
		s.logger.Errorf("Failed to start health monitor, id: %s, error: %v", id, err)
		return
	}
	entry.setMonitor(monitor)
	entry.setMonitorGen(gen)
}

// cancelMonitorLocked stops the current monitor synchronously and clears
// the generation so callbacks already in flight become no-ops.
func (s *Supervisor) cancelMonitorLocked(entry *serviceEntry) {
	if monitor := entry.takeMonitor(); monitor != nil {
		monitor.Stop()
	}
}

// handleUnhealthy reacts to an unhealthy health record. It runs on the
// monitor's callback goroutine, never on the probe loop, so stopping the
// monitor from here cannot deadlock.
func (s *Supervisor) handleUnhealthy(id string, gen uint64, record monitoring.HealthRecord) {
	entry, err := s.registry.get(id)
	if err != nil {
		return
	}

	set := entry.settings()
	policy := monitoring.RestartPolicy{
		RestartOnFailure: set.RestartOnFailure,
		MaxRestarts:      set.MaxRestarts,
	}

	switch s.policy.Decide(id, policy, entry.restartCount()) {
	case monitoring.DecisionRestart:
		if err := s.restartFromPolicy(context.Background(), entry, gen, record.Details); err != nil {
			s.logger.Errorf("Automatic restart failed, id: %s, error: %v", id, err)
		}
	case monitoring.DecisionStop:
		if err := s.stopFromPolicy(context.Background(), entry, gen); err != nil {
			s.logger.Errorf("Policy stop failed, id: %s, error: %v", id, err)
		}
	}
}

// restartFromPolicy performs an automatic restart. Records produced by a
// monitor that has since been replaced or cancelled are discarded, and
// the restart is abandoned if the service is no longer running by the
// time the operation lock is acquired.
func (s *Supervisor) restartFromPolicy(ctx context.Context, entry *serviceEntry, gen uint64, reason string) error {
	id := entry.snapshotDescriptor().ID

	entry.opMu.Lock()
	defer entry.opMu.Unlock()

	if entry.currentMonitorGen() != gen {
		s.logger.Debugf("Stale health record, automatic restart skipped, id: %s", id)
		return nil
	}
	if entry.machine.Current() != services.ServiceStatusRunning {
		s.logger.Debugf("Service no longer running, automatic restart skipped, id: %s", id)
		return nil
	}

	// The counter may have moved since the decision was made.
	set := entry.settings()
	if entry.restartCount() >= set.MaxRestarts {
		return s.stopExhaustedLocked(ctx, entry)
	}
	return s.restartLocked(ctx, entry, reason)
}

// stopFromPolicy permanently stops a service whose restart cap is
// exhausted. Same staleness rules as restartFromPolicy.
func (s *Supervisor) stopFromPolicy(ctx context.Context, entry *serviceEntry, gen uint64) error {
	id := entry.snapshotDescriptor().ID

	entry.opMu.Lock()
	defer entry.opMu.Unlock()

	if entry.currentMonitorGen() != gen {
		s.logger.Debugf("Stale health record, policy stop skipped, id: %s", id)
		return nil
	}
	if entry.machine.Current() != services.ServiceStatusRunning {
		return nil
	}
	return s.stopExhaustedLocked(ctx, entry)
}

func (s *Supervisor) stopExhaustedLocked(ctx context.Context, entry *serviceEntry) error {
	id := entry.snapshotDescriptor().ID
	s.logger.Warnf("Restart cap exhausted, stopping service until manual intervention, id: %s, restarts: %d",
		id, entry.restartCount())
	return s.stopPhaseLocked(ctx, entry, "stop")
}

// ExportSnapshot captures the full supervisor state as a wire document.
func (s *Supervisor) ExportSnapshot() snapshot.Document {
	entries := s.registry.list()
	states := make([]snapshot.ServiceState, 0, len(entries))
	for _, entry := range entries {
		states = append(states, snapshot.FromDescriptor(entry.snapshotDescriptor()))
	}

	records := s.recorder.AllHealth()
	checks := make([]snapshot.HealthCheck, 0, len(records))
	for _, record := range records {
		checks = append(checks, snapshot.FromHealthRecord(record))
	}

	return snapshot.Document{
		Services:     states,
		HealthChecks: checks,
		LastUpdate:   time.Now(),
	}
}

// ImportSnapshot replaces the supervisor state with a previously exported
// document. Every descriptor, the combined graph, and the unit set are
// validated before any mutation; on error the current state is untouched.
// Restored services keep their recorded status and restart count. Health
// monitors are re-armed for restored running services without invoking
// start hooks, and no lifecycle events are emitted.
func (s *Supervisor) ImportSnapshot(ctx context.Context, doc snapshot.Document, units map[string]services.Unit) error {
	if ctx == nil {
		return errors.NewValidationError("context cannot be nil", nil)
	}

	descriptors := make([]services.ServiceDescriptor, 0, len(doc.Services))
	graph := make(depgraph.Graph, len(doc.Services))

	for _, state := range doc.Services {
		descriptor, err := state.ToDescriptor()
		if err != nil {
			return err
		}
		if err := services.ValidateDescriptor(descriptor); err != nil {
			return err
		}
		if _, dup := graph[descriptor.ID]; dup {
			return errors.NewValidationError("duplicate service id in snapshot", nil).
				WithContext("service_id", descriptor.ID)
		}

		unit, ok := units[descriptor.ID]
		if !ok || unit == nil {
			return errors.NewValidationError("no unit provided for snapshot service", nil).
				WithContext("service_id", descriptor.ID)
		}
		if descriptor.Runtime.Status == services.ServiceStatusRunning && descriptor.Settings.HealthCheckInterval > 0 {
			if _, checkable := unit.(services.HealthCheckable); !checkable {
				return errors.NewValidationError("restored running service requires a health-checkable unit", nil).
					WithContext("service_id", descriptor.ID)
			}
		}

		graph[descriptor.ID] = descriptor.Dependencies
		descriptors = append(descriptors, descriptor)
	}

	if err := depgraph.CheckAcyclic(graph); err != nil {
		return err
	}

	records := make([]monitoring.HealthRecord, 0, len(doc.HealthChecks))
	for _, check := range doc.HealthChecks {
		record, err := check.ToHealthRecord()
		if err != nil {
			return err
		}
		records = append(records, record)
	}

	// Validation passed; tear down the old state and swap in the new.
	for _, entry := range s.registry.list() {
		entry.opMu.Lock()
		s.cancelMonitorLocked(entry)
		entry.opMu.Unlock()
	}

	entries := make(map[string]*serviceEntry, len(descriptors))
	for _, descriptor := range descriptors {
		entry := newServiceEntry(descriptor.Clone(), units[descriptor.ID], descriptor.Runtime.Status, s.logger)
		entry.mu.Lock()
		entry.descriptor.Runtime = descriptor.Runtime
		entry.mu.Unlock()
		entries[descriptor.ID] = entry
	}

	s.registry.replaceAll(entries)
	s.recorder.ReplaceHealth(records)

	for _, descriptor := range descriptors {
		if descriptor.Runtime.Status != services.ServiceStatusRunning {
			continue
		}
		entry := entries[descriptor.ID]
		entry.opMu.Lock()
		s.armMonitorLocked(entry)
		entry.opMu.Unlock()
	}

	s.logger.Infof("Snapshot imported, services: %d, health_records: %d", len(descriptors), len(records))
	return nil
}

// invokeHook runs a lifecycle hook under the hook timeout. The hook runs
// on its own goroutine so a hook that ignores its context still cannot
// wedge the supervisor.
func (s *Supervisor) invokeHook(ctx context.Context, id, operation string, hook func(context.Context) error) error {
	hookCtx, cancel := context.WithTimeout(ctx, s.options.HookTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- hook(hookCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-hookCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.NewTimeoutError(
			fmt.Sprintf("%s hook exceeded timeout %v", operation, s.options.HookTimeout), hookCtx.Err(),
		).WithContext("service_id", id)
	}
}
