package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ClientConfig configures the MongoDB client.
type ClientConfig struct {
	URI         string
	Database    string
	Timeout     time.Duration
	MaxPoolSize uint64
}

// Connect creates a client and pings the server. An unreachable server is
// logged and the client returned anyway: operations fail individually until the
// server comes back.
func Connect(ctx context.Context, cfg ClientConfig, logger *slog.Logger) (*mongo.Client, error) {
	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetTimeout(cfg.Timeout).
		SetServerSelectionTimeout(cfg.Timeout)
	if cfg.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	if pingErr := client.Ping(pingCtx, nil); pingErr != nil {
		logger.WarnContext(ctx, "MongoDB not reachable at startup",
			slog.String("database", cfg.Database),
			slog.String("error", pingErr.Error()))
		return client, nil
	}

	logger.InfoContext(ctx, "connected to MongoDB", slog.String("database", cfg.Database))
	return client, nil
}
