package monitoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/errors"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/logging"
)

// ProbeFunc invokes a unit's health check hook.
type ProbeFunc func(ctx context.Context) (HealthReport, error)

// RecordSink receives every health record the monitor produces.
type RecordSink func(record HealthRecord)

// UnhealthyFunc is notified of unhealthy records so a restart policy can
// react. It is invoked on its own goroutine to keep the probe loop free.
type UnhealthyFunc func(record HealthRecord)

// MonitorOptions configures a per-service health monitor.
type MonitorOptions struct {
	ServiceID string
	Interval  time.Duration
	Timeout   time.Duration
}

// HealthMonitor is a repeating probe task tied to a service's running
// lifetime. Stop is synchronous: when it returns, no further probe will
// fire and no probe is in flight.
type HealthMonitor interface {
	Start() error
	Stop()
}

type healthMonitor struct {
	options     MonitorOptions
	probe       ProbeFunc
	sink        RecordSink
	onUnhealthy UnhealthyFunc
	stopChan    chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
	logger      logging.Logger
}

// NewHealthMonitor creates a health monitor for a single service.
func NewHealthMonitor(options MonitorOptions, probe ProbeFunc, sink RecordSink, onUnhealthy UnhealthyFunc, logger logging.Logger) HealthMonitor {
	return &healthMonitor{
		options:     options,
		probe:       probe,
		sink:        sink,
		onUnhealthy: onUnhealthy,
		stopChan:    make(chan struct{}),
		logger:      logger,
	}
}

func (h *healthMonitor) Start() error {
	if err := ValidateMonitorOptions(h.options); err != nil {
		return errors.NewValidationError("invalid health monitor options", err).WithContext("service_id", h.options.ServiceID)
	}
	if h.probe == nil {
		return errors.NewValidationError("health probe cannot be nil", nil).WithContext("service_id", h.options.ServiceID)
	}

	h.logger.Infof("Starting health monitor, id: %s, interval: %v, timeout: %v",
		h.options.ServiceID, h.options.Interval, h.options.Timeout)

	h.wg.Add(1)
	go h.loop()
	return nil
}

func (h *healthMonitor) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopChan)
	})
	h.wg.Wait()
	h.logger.Infof("Health monitor stopped, id: %s", h.options.ServiceID)
}

func (h *healthMonitor) loop() {
	defer h.wg.Done()

	h.logger.Debugf("Health monitor loop started, id: %s", h.options.ServiceID)

	ticker := time.NewTicker(h.options.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.performCheck()
		case <-h.stopChan:
			h.logger.Debugf("Health monitor loop stopping, id: %s", h.options.ServiceID)
			return
		}
	}
}

func (h *healthMonitor) performCheck() {
	started := time.Now()
	report, err := h.safeProbe()
	elapsed := time.Since(started)

	record := HealthRecord{
		ServiceID: h.options.ServiceID,
		Timestamp: time.Now(),
		Status:    report.Status,
		Metrics:   report.Metrics,
		Details:   report.Details,
	}
	record.Metrics.ResponseTime = elapsed

	// A failed probe is downgraded to an unhealthy record; it never
	// escapes the monitoring loop.
	if err != nil {
		record.Status = HealthStatusUnhealthy
		record.Details = err.Error()
		h.logger.Warnf("Health probe failed, id: %s, error: %v", h.options.ServiceID, err)
	} else if !record.Status.IsValid() {
		record.Status = HealthStatusUnhealthy
		record.Details = fmt.Sprintf("probe returned invalid health status %q", report.Status)
	}

	if h.sink != nil {
		h.sink(record)
	}

	if record.Status == HealthStatusUnhealthy && h.onUnhealthy != nil {
		// Dispatched off the loop so a restart cannot deadlock against
		// this monitor's own cancellation.
		go h.onUnhealthy(record)
	}
}

// safeProbe runs the probe under the configured timeout and converts
// panics and deadline hits into probe errors.
func (h *healthMonitor) safeProbe() (report HealthReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewProbeError(fmt.Sprintf("health probe panicked: %v", r), nil).WithContext("service_id", h.options.ServiceID)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), h.options.Timeout)
	defer cancel()

	report, err = h.probe(ctx)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return report, errors.NewTimeoutError(
				fmt.Sprintf("health probe timed out after %v", h.options.Timeout), err,
			).WithContext("service_id", h.options.ServiceID)
		}
		return report, errors.NewProbeError("health probe failed", err).WithContext("service_id", h.options.ServiceID)
	}
	return report, nil
}
