package ygggo_cassandra

import (
	"context"
	"os"
	"testing"
	"time"

	gge "github.com/yggai/ygggo_env"
)

// EnvIntegration gates the tests that need a live Cassandra container.
const EnvIntegration = "YGGGO_CASSANDRA_INTEGRATION"

// TestHelper hands tests a pool connected to the container TestMain manages.
type TestHelper struct {
	pool   *Pool
	config Config
}

// NewTestHelper builds a pool from environment configuration. Tests that use
// it must be gated on integrationEnabled.
func NewTestHelper(ctx context.Context) (*TestHelper, error) {
	config := Config{}
	applyEnv(&config)
	pool, err := NewPoolEnv(ctx)
	if err != nil {
		return nil, err
	}
	return &TestHelper{pool: pool, config: config}, nil
}

// Pool returns the database pool for testing.
func (h *TestHelper) Pool() *Pool { return h.pool }

// Config returns the configuration used by this test helper.
func (h *TestHelper) Config() Config { return h.config }

// Close closes the test helper and its resources.
func (h *TestHelper) Close() error {
	if h.pool != nil {
		return h.pool.Close()
	}
	return nil
}

func integrationEnabled() bool {
	return os.Getenv(EnvIntegration) != ""
}

// TestMain brings up the Cassandra container before integration runs and
// leaves unit runs untouched.
func TestMain(m *testing.M) {
	// Load .env
	gge.LoadEnv()

	if integrationEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 180*time.Second)
		if !IsCassandra(ctx) {
			if os.Getenv(EnvDockerContainerName) == "" {
				_ = os.Setenv(EnvDockerContainerName, "ygggo-cassandra-test")
			}
			if err := NewCassandra(ctx); err != nil {
				println("[TestMain] NewCassandra error:", err.Error())
				cancel()
				os.Exit(1)
			}
		}
		cancel()
	}

	os.Exit(m.Run())
}
