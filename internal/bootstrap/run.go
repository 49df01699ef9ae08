package bootstrap

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lllypuk/eventboard/internal/config"
	"github.com/lllypuk/eventboard/internal/infrastructure/httpserver"
	"github.com/lllypuk/eventboard/internal/infrastructure/logger"
)

// Run loads the configuration of service, wires it with wire and serves until
// SIGINT or SIGTERM. It returns the process exit code.
func Run(service string, wire WireFunc) int {
	cfg, err := config.NewLoader().WithService(service).Load("")
	if err != nil {
		//nolint:sloglint // No context available before logger setup
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		return 1
	}

	log := logger.Setup(cfg.Log, service)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container := NewContainer(cfg, WithLogger(log))
	defer func() {
		if closeErr := container.Close(); closeErr != nil {
			log.Error("container close error", slog.String("error", closeErr.Error()))
		}
	}()

	server, err := NewServer(ctx, container, wire)
	if err != nil {
		log.ErrorContext(ctx, "failed to wire service", slog.String("error", err.Error()))
		return 1
	}

	log.InfoContext(ctx, "starting service",
		slog.String("environment", cfg.App.Environment),
		slog.String("mode", string(cfg.App.Mode)),
	)

	if err = server.Run(ctx); err != nil {
		log.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
		return 1
	}

	log.Info("service stopped")
	return 0
}

// NewServer builds the HTTP server of one service: global middleware, the
// service routes, health and metrics endpoints.
func NewServer(ctx context.Context, c *Container, wire WireFunc) (*httpserver.Server, error) {
	server := httpserver.NewServer(c.Config.Server, c.Logger)

	router := httpserver.NewRouter(server.Echo(), httpserver.RouterConfig{
		Logger:      c.Logger,
		CORSOrigins: c.Config.Server.CORSOrigins,
	})

	if err := wire(ctx, c, router); err != nil {
		return nil, err
	}

	router.RegisterHealthEndpoints(c.HealthEndpoints())
	router.RegisterMetricsEndpoint(c.Registry)
	router.PrintRoutes()

	return server, nil
}
