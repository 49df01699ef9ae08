// Package httpserver provides the HTTP server, router, response helpers and health
// endpoints shared by every eventboard service.
package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lllypuk/eventboard/internal/application/appcore"
)

// Health status constants.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusReady     = "ready"
	StatusNotReady  = "not_ready"
)

// ComponentStatus represents the health status of a single component.
type ComponentStatus struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthResponse represents the response for health endpoints.
type HealthResponse struct {
	Status     string            `json:"status"`
	Components []ComponentStatus `json:"components,omitempty"`
}

// HealthEndpoints serves the liveness, readiness and detail probes.
type HealthEndpoints struct {
	checkers []appcore.HealthChecker
}

// NewHealthEndpoints creates health endpoints over the service's dependencies.
// A service with no dependencies is always ready.
func NewHealthEndpoints(checkers ...appcore.HealthChecker) *HealthEndpoints {
	return &HealthEndpoints{checkers: checkers}
}

// Register registers all health endpoints on the Echo instance.
//   - GET /health - liveness, always 200 while the process runs
//   - GET /ready - 200 when every dependency answers, 503 otherwise
//   - GET /health/details - per-component status
func (h *HealthEndpoints) Register(e *echo.Echo) {
	e.GET("/health", h.handleHealth)
	e.GET("/ready", h.handleReady)
	e.GET("/health/details", h.handleHealthDetails)
}

func (h *HealthEndpoints) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: StatusHealthy})
}

func (h *HealthEndpoints) handleReady(c echo.Context) error {
	components, ok := h.check(c.Request().Context())
	if ok {
		return c.JSON(http.StatusOK, HealthResponse{Status: StatusReady, Components: components})
	}
	return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: StatusNotReady, Components: components})
}

func (h *HealthEndpoints) handleHealthDetails(c echo.Context) error {
	components, ok := h.check(c.Request().Context())
	if ok {
		return c.JSON(http.StatusOK, HealthResponse{Status: StatusHealthy, Components: components})
	}
	return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: StatusUnhealthy, Components: components})
}

func (h *HealthEndpoints) check(ctx context.Context) ([]ComponentStatus, bool) {
	components := make([]ComponentStatus, 0, len(h.checkers))
	healthy := true
	for _, checker := range h.checkers {
		result := checker.Check(ctx)
		status := StatusHealthy
		if !result.Healthy {
			status = StatusUnhealthy
			healthy = false
		}
		components = append(components, ComponentStatus{
			Name:    checker.Name(),
			Status:  status,
			Message: result.Message,
		})
	}
	return components, healthy
}
