package services

import (
	"context"

	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/monitoring"
)

// Unit is the uniform contract every supervised service implements. The
// supervisor never inspects what a unit does; it only drives these hooks.
type Unit interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// HealthCheckable is implemented by units that support periodic health
// probing. Units without it are supervised without a probe task.
type HealthCheckable interface {
	CheckHealth(ctx context.Context) (monitoring.HealthReport, error)
}

// FuncUnit adapts plain functions to the Unit contract. Nil functions are
// no-ops; a nil HealthFunc reports healthy.
type FuncUnit struct {
	StartFunc  func(ctx context.Context) error
	StopFunc   func(ctx context.Context) error
	HealthFunc func(ctx context.Context) (monitoring.HealthReport, error)
}

func (u *FuncUnit) Start(ctx context.Context) error {
	if u.StartFunc == nil {
		return nil
	}
	return u.StartFunc(ctx)
}

func (u *FuncUnit) Stop(ctx context.Context) error {
	if u.StopFunc == nil {
		return nil
	}
	return u.StopFunc(ctx)
}

func (u *FuncUnit) CheckHealth(ctx context.Context) (monitoring.HealthReport, error) {
	if u.HealthFunc == nil {
		return monitoring.HealthReport{Status: monitoring.HealthStatusHealthy}, nil
	}
	return u.HealthFunc(ctx)
}
