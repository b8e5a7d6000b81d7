package services

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/errors"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/logging"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/monitoring"
)

// EndpointKind selects how an endpoint unit probes its target.
type EndpointKind string

const (
	EndpointKindHTTP EndpointKind = "http"
	EndpointKindTCP  EndpointKind = "tcp"
)

// EndpointConfig configures an EndpointUnit.
type EndpointConfig struct {
	Kind EndpointKind `yaml:"kind"`

	// HTTP endpoint
	URL     string            `yaml:"url,omitempty"`
	Method  string            `yaml:"method,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`

	// TCP endpoint
	Address string `yaml:"address,omitempty"`
}

// ValidateEndpointConfig validates an endpoint unit configuration.
func ValidateEndpointConfig(config EndpointConfig) error {
	switch config.Kind {
	case EndpointKindHTTP:
		if config.URL == "" {
			return errors.NewValidationError("URL is required for HTTP endpoint", nil)
		}
	case EndpointKindTCP:
		if config.Address == "" {
			return errors.NewValidationError("address is required for TCP endpoint", nil)
		}
		if _, _, err := net.SplitHostPort(config.Address); err != nil {
			return errors.NewValidationError("invalid TCP endpoint address: "+config.Address, err)
		}
	default:
		return errors.NewValidationError("unsupported endpoint kind: "+string(config.Kind), nil)
	}
	return nil
}

// EndpointUnit supervises an external HTTP or TCP endpoint. Start verifies
// the endpoint is reachable, Stop is a no-op (the supervisor does not own
// the remote side), and CheckHealth probes it.
type EndpointUnit struct {
	config EndpointConfig
	logger logging.Logger
}

// NewEndpointUnit creates an endpoint unit from a validated configuration.
func NewEndpointUnit(config EndpointConfig, logger logging.Logger) (*EndpointUnit, error) {
	if err := ValidateEndpointConfig(config); err != nil {
		return nil, err
	}
	return &EndpointUnit{config: config, logger: logger}, nil
}

func (u *EndpointUnit) Start(ctx context.Context) error {
	report, err := u.CheckHealth(ctx)
	if err != nil {
		return errors.NewStartError("endpoint unreachable", err)
	}
	if report.Status == monitoring.HealthStatusUnhealthy {
		return errors.NewStartError("endpoint unreachable: "+report.Details, nil)
	}
	return nil
}

func (u *EndpointUnit) Stop(ctx context.Context) error {
	return nil
}

func (u *EndpointUnit) CheckHealth(ctx context.Context) (monitoring.HealthReport, error) {
	switch u.config.Kind {
	case EndpointKindHTTP:
		return u.checkHTTP(ctx)
	case EndpointKindTCP:
		return u.checkTCP(ctx)
	default:
		return monitoring.HealthReport{}, errors.NewProbeError("unsupported endpoint kind: "+string(u.config.Kind), nil)
	}
}

func (u *EndpointUnit) checkHTTP(ctx context.Context) (monitoring.HealthReport, error) {
	method := u.config.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, u.config.URL, nil)
	if err != nil {
		return monitoring.HealthReport{}, errors.NewProbeError("failed to create HTTP request", err)
	}
	for key, value := range u.config.Headers {
		req.Header.Set(key, value)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return monitoring.HealthReport{
			Status:  monitoring.HealthStatusUnhealthy,
			Details: fmt.Sprintf("HTTP request failed: %v", err),
		}, nil
	}
	defer resp.Body.Close()

	// 2xx is healthy, 5xx is unhealthy, anything else is degraded.
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return monitoring.HealthReport{
			Status:  monitoring.HealthStatusHealthy,
			Details: fmt.Sprintf("HTTP check passed: %s", resp.Status),
		}, nil
	case resp.StatusCode >= 500:
		return monitoring.HealthReport{
			Status:  monitoring.HealthStatusUnhealthy,
			Details: fmt.Sprintf("HTTP check failed: %s", resp.Status),
		}, nil
	default:
		return monitoring.HealthReport{
			Status:  monitoring.HealthStatusDegraded,
			Details: fmt.Sprintf("HTTP check degraded: %s", resp.Status),
		}, nil
	}
}

func (u *EndpointUnit) checkTCP(ctx context.Context) (monitoring.HealthReport, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", u.config.Address)
	if err != nil {
		return monitoring.HealthReport{
			Status:  monitoring.HealthStatusUnhealthy,
			Details: fmt.Sprintf("TCP connection failed: %v", err),
		}, nil
	}
	defer conn.Close()

	return monitoring.HealthReport{
		Status:  monitoring.HealthStatusHealthy,
		Details: "TCP connection successful to " + u.config.Address,
	}, nil
}
