// Package healthcheck provides health checks for the stores a service depends on.
package healthcheck

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/lllypuk/eventboard/internal/application/appcore"
)

// Default threshold above which a successful ping is reported as slow.
const defaultSlowThreshold = 500 * time.Millisecond

// StoreChecker pings a store and reports the round-trip time.
type StoreChecker struct {
	name          string
	ping          func(ctx context.Context) error
	slowThreshold time.Duration
}

// StoreCheckerOption configures StoreChecker.
type StoreCheckerOption func(*StoreChecker)

// WithSlowThreshold sets the latency above which the store is reported slow.
func WithSlowThreshold(threshold time.Duration) StoreCheckerOption {
	return func(c *StoreChecker) {
		c.slowThreshold = threshold
	}
}

// NewStoreChecker creates a checker named name around ping.
func NewStoreChecker(name string, ping func(ctx context.Context) error, opts ...StoreCheckerOption) *StoreChecker {
	c := &StoreChecker{
		name:          name,
		ping:          ping,
		slowThreshold: defaultSlowThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewMongoDBChecker checks a MongoDB deployment.
func NewMongoDBChecker(client *mongo.Client, opts ...StoreCheckerOption) *StoreChecker {
	return NewStoreChecker("mongodb", func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	}, opts...)
}

// NewRedisChecker checks a Redis server.
func NewRedisChecker(client *redis.Client, opts ...StoreCheckerOption) *StoreChecker {
	return NewStoreChecker("redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}, opts...)
}

// Name returns the name of this health checker.
func (c *StoreChecker) Name() string {
	return c.name
}

// Check performs the health check. A slow store is still healthy.
func (c *StoreChecker) Check(ctx context.Context) appcore.HealthStatus {
	start := time.Now()
	err := c.ping(ctx)
	latency := time.Since(start)

	details := map[string]any{
		"latency_ms": latency.Milliseconds(),
	}

	if err != nil {
		return appcore.HealthStatus{
			Healthy:   false,
			Message:   fmt.Sprintf("ping failed: %v", err),
			Details:   details,
			CheckedAt: time.Now(),
		}
	}

	message := "ok"
	if latency > c.slowThreshold {
		message = fmt.Sprintf("slow response: %s", latency.Round(time.Millisecond))
	}

	return appcore.HealthStatus{
		Healthy:   true,
		Message:   message,
		Details:   details,
		CheckedAt: time.Now(),
	}
}
