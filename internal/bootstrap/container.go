// Package bootstrap wires configuration, stores and HTTP plumbing into the four
// eventboard services.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/lllypuk/eventboard/internal/application/appcore"
	"github.com/lllypuk/eventboard/internal/config"
	"github.com/lllypuk/eventboard/internal/infrastructure/docstore"
	"github.com/lllypuk/eventboard/internal/infrastructure/healthcheck"
	"github.com/lllypuk/eventboard/internal/infrastructure/httpserver"
	"github.com/lllypuk/eventboard/internal/infrastructure/metrics"
	mongodbinfra "github.com/lllypuk/eventboard/internal/infrastructure/mongodb"
	"github.com/lllypuk/eventboard/internal/infrastructure/repository/mongodb"
)

const (
	redisPingTimeout       = 5 * time.Second
	mongoDisconnectTimeout = 10 * time.Second
)

// Container holds the shared dependencies of one service and manages their
// lifecycle.
type Container struct {
	Config   *config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.RecordMetrics

	MongoDB *mongo.Client
	Redis   *redis.Client

	mu       sync.Mutex
	memory   map[string]*docstore.MemoryCollection
	checkers []appcore.HealthChecker
	closers  []func(context.Context) error
}

// ContainerOption configures the Container.
type ContainerOption func(*Container)

// WithLogger sets a custom logger for the container.
func WithLogger(logger *slog.Logger) ContainerOption {
	return func(c *Container) {
		c.Logger = logger
	}
}

// NewContainer creates a container with a fresh metrics registry.
func NewContainer(cfg *config.Config, opts ...ContainerOption) *Container {
	c := &Container{
		Config:   cfg,
		Logger:   slog.Default(),
		Registry: prometheus.NewRegistry(),
		memory:   map[string]*docstore.MemoryCollection{},
	}
	for _, opt := range opts {
		opt(c)
	}

	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.Metrics = metrics.NewRecordMetrics(c.Registry)

	if cfg.App.IsMockMode() {
		c.Logger.Warn("running in mock mode: records are kept in memory")
	}
	return c
}

// Collection returns the document collection called name. In mock mode it is
// an in-memory collection; without a MongoDB URI it is nil, which the record
// services report as store unavailable.
func (c *Container) Collection(ctx context.Context, name string) (appcore.Collection, error) {
	if c.Config.App.IsMockMode() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.memory[name]; !ok {
			c.memory[name] = docstore.NewMemoryCollection()
		}
		return c.memory[name], nil
	}

	if !c.Config.MongoDB.Configured() {
		c.Logger.WarnContext(ctx, "MongoDB is not configured; every record operation will fail",
			slog.String("collection", name))
		return nil, nil
	}

	client, err := c.mongoClient(ctx)
	if err != nil {
		return nil, err
	}

	db := client.Database(c.Config.MongoDB.Database)
	indexCtx, cancel := context.WithTimeout(ctx, c.Config.MongoDB.Timeout)
	defer cancel()
	if indexErr := mongodbinfra.CreateIndexes(indexCtx, db, mongodbinfra.IndexesFor(name)); indexErr != nil {
		c.Logger.WarnContext(ctx, "failed to create indexes",
			slog.String("collection", name),
			slog.String("error", indexErr.Error()))
	}

	return mongodb.NewCollection(db.Collection(name), mongodb.WithLogger(c.Logger)), nil
}

func (c *Container) mongoClient(ctx context.Context) (*mongo.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.MongoDB != nil {
		return c.MongoDB, nil
	}

	client, err := mongodbinfra.Connect(ctx, mongodbinfra.ClientConfig{
		URI:         c.Config.MongoDB.URI,
		Database:    c.Config.MongoDB.Database,
		Timeout:     c.Config.MongoDB.Timeout,
		MaxPoolSize: c.Config.MongoDB.MaxPoolSize,
	}, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("mongodb: %w", err)
	}

	c.MongoDB = client
	c.checkers = append(c.checkers, healthcheck.NewMongoDBChecker(client))
	c.closers = append(c.closers, func(ctx context.Context) error {
		return client.Disconnect(ctx)
	})
	return client, nil
}

// RedisClient connects to Redis once and verifies the connection.
func (c *Container) RedisClient(ctx context.Context) (*redis.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Redis != nil {
		return c.Redis, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Addr,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
		PoolSize: c.Config.Redis.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: failed to ping: %w", err)
	}

	c.Logger.InfoContext(ctx, "connected to Redis", slog.String("addr", c.Config.Redis.Addr))

	c.Redis = client
	c.checkers = append(c.checkers, healthcheck.NewRedisChecker(client))
	c.closers = append(c.closers, func(context.Context) error { return client.Close() })
	return client, nil
}

// OnClose registers a cleanup run by Close.
func (c *Container) OnClose(fn func(context.Context) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closers = append(c.closers, fn)
}

// HealthEndpoints returns the health endpoints over every connected store.
func (c *Container) HealthEndpoints() *httpserver.HealthEndpoints {
	c.mu.Lock()
	defer c.mu.Unlock()
	return httpserver.NewHealthEndpoints(c.checkers...)
}

// Close releases resources in reverse order of acquisition.
func (c *Container) Close() error {
	c.mu.Lock()
	closers := c.closers
	c.closers = nil
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
	defer cancel()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	c.Logger.Debug("container resources closed")
	return nil
}
