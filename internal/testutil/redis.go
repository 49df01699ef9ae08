package testutil

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	redisCtxTimeout              = 10 * time.Second
	redisContainerStartupTimeout = 60 * time.Second
	redisContainerMemoryLimit    = 128 * 1024 * 1024
	redisTestPoolSize            = 10
)

var (
	sharedRedis     *RedisContainer
	sharedRedisOnce sync.Once
	errSharedRedis  error
)

// RedisContainer is the Redis container shared by every test in the binary.
type RedisContainer struct {
	Container testcontainers.Container
	Addr      string
}

// GetRedisContainer starts the shared container on first use.
func GetRedisContainer(ctx context.Context) (*RedisContainer, error) {
	sharedRedisOnce.Do(func() {
		sharedRedis, errSharedRedis = startRedisContainer(ctx)
	})
	return sharedRedis, errSharedRedis
}

func startRedisContainer(ctx context.Context) (*RedisContainer, error) {
	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		HostConfigModifier: func(hc *container.HostConfig) {
			hc.Memory = redisContainerMemoryLimit
			hc.MemorySwap = redisContainerMemoryLimit
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("Ready to accept connections").WithStartupTimeout(redisContainerStartupTimeout),
			wait.ForListeningPort("6379/tcp").WithStartupTimeout(redisContainerStartupTimeout),
		),
	}

	cont, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start Redis container: %w", err)
	}

	host, err := cont.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := cont.MappedPort(ctx, "6379")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	return &RedisContainer{Container: cont, Addr: net.JoinHostPort(host, port.Port())}, nil
}

// SetupTestRedis returns a client on the shared container plus a key prefix
// unique to the calling test. Keys under the prefix are removed when the test ends.
func SetupTestRedis(t *testing.T) (*redis.Client, string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), redisContainerStartupTimeout)
	defer cancel()

	cont, err := GetRedisContainer(ctx)
	if err != nil {
		t.Fatalf("Failed to get shared Redis container: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: cont.Addr, PoolSize: redisTestPoolSize})
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to ping Redis: %v", err)
	}

	prefix := fmt.Sprintf("test:%s:", t.Name())

	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), redisCtxTimeout)
		defer cleanupCancel()
		iter := client.Scan(cleanupCtx, 0, prefix+"*", 0).Iterator()
		for iter.Next(cleanupCtx) {
			_ = client.Del(cleanupCtx, iter.Val()).Err()
		}
		_ = client.Close()
	})

	return client, prefix
}
