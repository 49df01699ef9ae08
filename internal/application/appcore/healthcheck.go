// Package appcore provides the document store contract, shared service plumbing and
// request-scoped context values used across the record services.
package appcore

import (
	"context"
	"time"
)

// HealthChecker checks one dependency of a service (MongoDB, Redis).
type HealthChecker interface {
	// Check performs health check and returns status.
	Check(ctx context.Context) HealthStatus

	// Name returns the name of this health checker.
	Name() string
}

// HealthStatus represents the health status of a component.
type HealthStatus struct {
	Healthy   bool           `json:"healthy"`
	Message   string         `json:"message,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CheckedAt time.Time      `json:"checked_at"`
}

// PingFunc adapts a ping function into a HealthChecker.
type PingFunc struct {
	Component string
	Ping      func(ctx context.Context) error
}

// Name returns the component name.
func (p PingFunc) Name() string { return p.Component }

// Check pings the component.
func (p PingFunc) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{Healthy: true, CheckedAt: time.Now()}
	if err := p.Ping(ctx); err != nil {
		status.Healthy = false
		status.Message = err.Error()
	}
	return status
}
