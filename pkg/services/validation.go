package services

import (
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/errors"
)

// ValidateServiceID validates service ID format and constraints
func ValidateServiceID(id string) error {
	if id == "" {
		return errors.NewValidationError("service ID cannot be empty", nil)
	}

	if len(id) > 64 {
		return errors.NewValidationError("service ID cannot exceed 64 characters", nil)
	}

	// Check for invalid characters
	for _, char := range id {
		if !isValidIDChar(char) {
			return errors.NewValidationError("service ID contains invalid characters: only letters, numbers, hyphens, and underscores are allowed", nil)
		}
	}

	return nil
}

// ValidateDescriptor validates a service descriptor prior to registration.
// Runtime fields are ignored; the registry owns them.
func ValidateDescriptor(descriptor ServiceDescriptor) error {
	if err := ValidateServiceID(descriptor.ID); err != nil {
		return err
	}

	if descriptor.Name == "" {
		return errors.NewValidationError("service name cannot be empty", nil).WithContext("service_id", descriptor.ID)
	}

	if descriptor.Type == "" {
		return errors.NewValidationError("service type cannot be empty", nil).WithContext("service_id", descriptor.ID)
	}

	seen := make(map[string]bool, len(descriptor.Dependencies))
	for _, dep := range descriptor.Dependencies {
		if err := ValidateServiceID(dep); err != nil {
			return errors.NewValidationError("invalid dependency ID", err).WithContext("service_id", descriptor.ID).WithContext("dependency_id", dep)
		}
		if seen[dep] {
			return errors.NewValidationError("duplicate dependency: "+dep, nil).WithContext("service_id", descriptor.ID)
		}
		seen[dep] = true
	}

	return ValidateSettings(descriptor.Settings)
}

// ValidateSettings validates service supervision settings.
func ValidateSettings(settings ServiceSettings) error {
	if settings.MaxRestarts < 0 {
		return errors.NewValidationError("max restarts cannot be negative", nil)
	}

	if settings.HealthCheckInterval < 0 {
		return errors.NewValidationError("health check interval cannot be negative", nil)
	}

	return nil
}

// Helper function to check if character is valid for ID
func isValidIDChar(char rune) bool {
	return (char >= 'a' && char <= 'z') ||
		(char >= 'A' && char <= 'Z') ||
		(char >= '0' && char <= '9') ||
		char == '-' || char == '_'
}
