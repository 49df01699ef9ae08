package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lllypuk/eventboard/internal/middleware"
)

// DefaultAPIPrefix is the prefix of every service's API routes.
const DefaultAPIPrefix = "/v1"

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger *slog.Logger

	// CORSOrigins lists the browser origins allowed to call the service.
	// Empty allows any origin without credentials.
	CORSOrigins []string

	// APIPrefix is the prefix for all API routes. Default is "/v1".
	APIPrefix string
}

// Router applies the global middleware chain and owns the API route group.
type Router struct {
	echo   *echo.Echo
	logger *slog.Logger
	api    *echo.Group
}

// NewRouter installs recovery, CORS and request logging on e and creates the API group.
func NewRouter(e *echo.Echo, config RouterConfig) *Router {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.APIPrefix == "" {
		config.APIPrefix = DefaultAPIPrefix
	}

	// Recovery must be first to catch all panics
	e.Use(middleware.Recovery(config.Logger))
	e.Use(middleware.CORS(config.CORSOrigins))

	logging := middleware.DefaultLoggingConfig()
	logging.Logger = config.Logger
	e.Use(middleware.Logging(logging))

	return &Router{
		echo:   e,
		logger: config.Logger,
		api:    e.Group(config.APIPrefix),
	}
}

// Echo returns the underlying Echo instance.
func (r *Router) Echo() *echo.Echo {
	return r.echo
}

// API returns the route group under the API prefix.
func (r *Router) API() *echo.Group {
	return r.api
}

// RouteRegistrar defines the interface for registering routes.
type RouteRegistrar interface {
	RegisterRoutes(g *echo.Group)
}

// RegisterAll registers every registrar on the API group.
func (r *Router) RegisterAll(registrars ...RouteRegistrar) {
	for _, registrar := range registrars {
		registrar.RegisterRoutes(r.api)
	}
}

// RegisterHealthEndpoints registers /health, /ready and /health/details.
func (r *Router) RegisterHealthEndpoints(endpoints *HealthEndpoints) {
	endpoints.Register(r.echo)
}

// RegisterMetricsEndpoint serves the metrics of gatherer on /metrics.
func (r *Router) RegisterMetricsEndpoint(gatherer prometheus.Gatherer) {
	r.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}

// PrintRoutes logs all registered routes (for debugging).
func (r *Router) PrintRoutes() {
	for _, route := range r.echo.Routes() {
		r.logger.Debug("registered route",
			slog.String("method", route.Method),
			slog.String("path", route.Path),
		)
	}
}
