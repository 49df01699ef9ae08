// Package testutil starts shared MongoDB and Redis containers for integration tests.
package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	mongoCtxTimeout              = 30 * time.Second
	mongoContainerStartupTimeout = 90 * time.Second
	mongoPingTimeout             = 2 * time.Second
	mongoPingRetries             = 5
	mongoPingRetryDelay          = 500 * time.Millisecond
	maxDBNameLength              = 40
)

var (
	sharedMongo     *MongoContainer
	sharedMongoOnce sync.Once
	errSharedMongo  error
)

// MongoContainer is the MongoDB container shared by every test in the binary.
type MongoContainer struct {
	Container testcontainers.Container
	URI       string
}

// GetMongoContainer starts the shared container on first use.
func GetMongoContainer(ctx context.Context) (*MongoContainer, error) {
	sharedMongoOnce.Do(func() {
		sharedMongo, errSharedMongo = startMongoContainer(ctx)
	})
	return sharedMongo, errSharedMongo
}

func startMongoContainer(ctx context.Context) (*MongoContainer, error) {
	req := testcontainers.ContainerRequest{
		Image:        "mongo:8",
		Name:         "eventboard-test-mongodb",
		ExposedPorts: []string{"27017/tcp"},
		Env: map[string]string{
			"MONGO_INITDB_ROOT_USERNAME": "admin",
			"MONGO_INITDB_ROOT_PASSWORD": "admin123",
		},
		WaitingFor: wait.ForLog("Waiting for connections").WithStartupTimeout(mongoContainerStartupTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
		Reuse:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start MongoDB container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "27017")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	return &MongoContainer{
		Container: container,
		URI:       fmt.Sprintf("mongodb://admin:admin123@%s", net.JoinHostPort(host, port.Port())),
	}, nil
}

// SetupTestMongoDB returns a database private to the calling test. The database
// is dropped when the test ends.
func SetupTestMongoDB(t *testing.T) *mongo.Database {
	t.Helper()

	_, db := SetupTestMongoDBWithClient(t)
	return db
}

// SetupTestMongoDBWithClient is SetupTestMongoDB that also returns the client.
func SetupTestMongoDBWithClient(t *testing.T) (*mongo.Client, *mongo.Database) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), mongoCtxTimeout)
	defer cancel()

	container, err := GetMongoContainer(ctx)
	if err != nil {
		t.Fatalf("Failed to get shared MongoDB container: %v", err)
	}

	client, err := mongo.Connect(options.Client().ApplyURI(container.URI))
	if err != nil {
		t.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	for i := range mongoPingRetries {
		pingCtx, pingCancel := context.WithTimeout(context.Background(), mongoPingTimeout)
		err = client.Ping(pingCtx, nil)
		pingCancel()
		if err == nil {
			break
		}
		if i < mongoPingRetries-1 {
			time.Sleep(mongoPingRetryDelay)
		}
	}
	if err != nil {
		t.Fatalf("Failed to ping MongoDB after %d retries: %v", mongoPingRetries, err)
	}

	db := client.Database(testDBName(t.Name()))

	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), mongoCtxTimeout)
		defer cleanupCancel()
		_ = db.Drop(cleanupCtx)
		_ = client.Disconnect(cleanupCtx)
	})

	return client, db
}

// testDBName derives a valid database name from a test name (MongoDB limits length and characters).
func testDBName(testName string) string {
	name := strings.NewReplacer("/", "_", " ", "_", ".", "_").Replace(testName)
	if len(name) > maxDBNameLength {
		hash := sha256.Sum256([]byte(testName))
		name = name[:20] + "_" + hex.EncodeToString(hash[:])[:12]
	}
	return "eventboard_test_" + name
}
