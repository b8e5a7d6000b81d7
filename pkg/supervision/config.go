package supervision

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/errors"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/events"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/logging"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/services"
)

// ServerConfig configures the HTTP control surface.
type ServerConfig struct {
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
}

// SupervisorSettings configures supervisor-wide behavior.
type SupervisorSettings struct {
	HookTimeout     time.Duration `yaml:"hook_timeout"`
	ProbeTimeout    time.Duration `yaml:"probe_timeout"`
	HealthRetention int           `yaml:"health_retention"`
	SnapshotPath    string        `yaml:"snapshot_path"`
}

// ServiceConfig describes one supervised service in the config file.
// Config-declared services are endpoint units; programmatic units are
// registered through the API instead.
type ServiceConfig struct {
	ID                  string                   `yaml:"id"`
	Name                string                   `yaml:"name"`
	Type                string                   `yaml:"type"`
	DependsOn           []string                 `yaml:"depends_on,omitempty"`
	Enabled             *bool                    `yaml:"enabled,omitempty"`
	AutoStart           bool                     `yaml:"auto_start"`
	RestartOnFailure    bool                     `yaml:"restart_on_failure"`
	MaxRestarts         int                      `yaml:"max_restarts"`
	HealthCheckInterval time.Duration            `yaml:"health_check_interval"`
	Endpoint            *services.EndpointConfig `yaml:"endpoint,omitempty"`
}

// Config is the top-level configuration file structure.
type Config struct {
	Server     ServerConfig       `yaml:"server"`
	Supervisor SupervisorSettings `yaml:"supervisor"`
	Services   []ServiceConfig    `yaml:"services"`
}

// LoadConfigFromFile loads, defaults and validates a YAML config file.
func LoadConfigFromFile(path string, logger logging.Logger) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIOError("failed to read config file", err).WithContext("path", path)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.NewValidationError("failed to parse config file", err).WithContext("path", path)
	}

	setConfigDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	logger.Infof("Configuration loaded, path: %s, services: %d", path, len(config.Services))
	return &config, nil
}

// setConfigDefaults applies defaults to zero-valued fields.
func setConfigDefaults(config *Config) {
	if config.Server.Port == 0 {
		config.Server.Port = 8900
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = "info"
	}
	if config.Supervisor.HookTimeout == 0 {
		config.Supervisor.HookTimeout = DefaultHookTimeout
	}
	if config.Supervisor.HealthRetention == 0 {
		config.Supervisor.HealthRetention = events.DefaultHealthRetention
	}

	for i := range config.Services {
		service := &config.Services[i]
		if service.Enabled == nil {
			enabled := true
			service.Enabled = &enabled
		}
		if service.Type == "" && service.Endpoint != nil {
			service.Type = string(service.Endpoint.Kind) + "-endpoint"
		}
		if service.Name == "" {
			service.Name = service.ID
		}
	}
}

// validateConfig validates the whole configuration, including the service
// set: ids must be unique, dependencies must reference declared services,
// and every declared service needs a probe-able endpoint.
func validateConfig(config *Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return errors.NewValidationError(fmt.Sprintf("invalid server port: %d", config.Server.Port), nil)
	}
	switch config.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.NewValidationError(fmt.Sprintf("invalid log level: %q", config.Server.LogLevel), nil)
	}
	if config.Supervisor.HookTimeout < 0 {
		return errors.NewValidationError("hook timeout cannot be negative", nil)
	}
	if config.Supervisor.ProbeTimeout < 0 {
		return errors.NewValidationError("probe timeout cannot be negative", nil)
	}
	if config.Supervisor.HealthRetention < 0 {
		return errors.NewValidationError("health retention cannot be negative", nil)
	}

	ids := make(map[string]bool, len(config.Services))
	for _, service := range config.Services {
		if err := services.ValidateDescriptor(service.Descriptor()); err != nil {
			return err
		}
		if ids[service.ID] {
			return errors.NewValidationError("duplicate service id in config", nil).WithContext("service_id", service.ID)
		}
		ids[service.ID] = true

		if service.Endpoint == nil {
			return errors.NewValidationError("config-declared service requires an endpoint", nil).
				WithContext("service_id", service.ID)
		}
		if err := services.ValidateEndpointConfig(*service.Endpoint); err != nil {
			return errors.NewValidationError("invalid endpoint for service "+service.ID, err).
				WithContext("service_id", service.ID)
		}
	}

	for _, service := range config.Services {
		for _, dep := range service.DependsOn {
			if !ids[dep] {
				return errors.NewValidationError("dependency not declared in config", nil).
					WithContext("service_id", service.ID).WithContext("dependency_id", dep)
			}
		}
	}
	return nil
}

// Descriptor converts the config entry to a service descriptor.
func (c ServiceConfig) Descriptor() services.ServiceDescriptor {
	enabled := true
	if c.Enabled != nil {
		enabled = *c.Enabled
	}

	return services.ServiceDescriptor{
		ID:           c.ID,
		Name:         c.Name,
		Type:         c.Type,
		Dependencies: c.DependsOn,
		Settings: services.ServiceSettings{
			Enabled:             enabled,
			AutoStart:           c.AutoStart,
			RestartOnFailure:    c.RestartOnFailure,
			MaxRestarts:         c.MaxRestarts,
			HealthCheckInterval: c.HealthCheckInterval,
		},
	}
}

// BuildRegistrations converts the declared services into registrations
// with endpoint units, ready for Supervisor.RegisterAll.
func BuildRegistrations(config *Config, logger logging.Logger) ([]Registration, error) {
	registrations := make([]Registration, 0, len(config.Services))
	for _, service := range config.Services {
		unit, err := services.NewEndpointUnit(*service.Endpoint, logger)
		if err != nil {
			return nil, err
		}
		registrations = append(registrations, Registration{
			Descriptor: service.Descriptor(),
			Unit:       unit,
		})
	}
	return registrations, nil
}

// Units returns the unit set keyed by service id, as needed by
// Supervisor.ImportSnapshot when recovering from a snapshot file.
func Units(registrations []Registration) map[string]services.Unit {
	units := make(map[string]services.Unit, len(registrations))
	for _, registration := range registrations {
		units[registration.Descriptor.ID] = registration.Unit
	}
	return units
}
