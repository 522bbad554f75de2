package ygggo_cassandra

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gocql/gocql"
)

// HostDistance classifies a connection target relative to the local
// datacenter. LOCAL and REMOTE hosts get independently sized pools.
type HostDistance int

const (
	HostLocal HostDistance = iota
	HostRemote
)

func (d HostDistance) String() string {
	if d == HostLocal {
		return "LOCAL"
	}
	return "REMOTE"
}

// PoolingProfile holds the per-distance-class connection limits.
type PoolingProfile struct {
	CoreConnectionsPerHost   int
	MaxConnectionsPerHost    int
	MaxRequestsPerConnection int
	NewConnectionThreshold   int
}

func (p PoolingProfile) validate(d HostDistance) error {
	if p.CoreConnectionsPerHost > p.MaxConnectionsPerHost {
		return fmt.Errorf("%w: %s core connections %d > max connections %d",
			ErrInvalidPoolProfile, d, p.CoreConnectionsPerHost, p.MaxConnectionsPerHost)
	}
	return nil
}

// leaseCapacity is the number of concurrent session leases a distance class
// admits before acquires start waiting.
func (p PoolingProfile) leaseCapacity() int {
	n := p.MaxConnectionsPerHost * p.MaxRequestsPerConnection
	if n <= 0 {
		n = 1
	}
	return n
}

// PoolConfig holds pool-wide settings plus both distance profiles. All fields
// are fixed once the pool is built.
type PoolConfig struct {
	Local             PoolingProfile
	Remote            PoolingProfile
	HeartbeatInterval time.Duration
	IdleTimeout       time.Duration
	PoolTimeout       time.Duration
}

// SocketConfig carries raw socket tuning applied to every connection the
// pool dials. Immutable once the pool is built.
type SocketConfig struct {
	ConnectTimeout    time.Duration
	ReadTimeout       time.Duration
	KeepAlive         bool
	ReceiveBufferSize int
	SendBufferSize    int
	ReuseAddress      bool
	SoLinger          int // seconds; negative leaves the OS default
	TCPNoDelay        bool
}

// TimestampGenerator produces client-side write timestamps in microseconds.
type TimestampGenerator interface {
	Next() int64
}

// MonotonicTimestampGenerator issues strictly increasing microsecond
// timestamps even when the wall clock stalls inside one microsecond.
type MonotonicTimestampGenerator struct {
	last atomic.Int64
}

func NewMonotonicTimestampGenerator() *MonotonicTimestampGenerator {
	return &MonotonicTimestampGenerator{}
}

func (g *MonotonicTimestampGenerator) Next() int64 {
	for {
		now := time.Now().UnixMicro()
		last := g.last.Load()
		if now <= last {
			now = last + 1
		}
		if g.last.CompareAndSwap(last, now) {
			return now
		}
	}
}

// ClusterBuilderConfigurer is an optional last-step hook over the assembled
// driver config. It runs exactly once per build.
type ClusterBuilderConfigurer func(*gocql.ClusterConfig) *gocql.ClusterConfig

// Config holds library configuration.
type Config struct {
	// Contact points. Entries may themselves be comma separated lists.
	Hosts    []string
	Port     int
	Keyspace string
	Username string
	Password string

	ClusterName            string
	LocalDC                string
	Consistency            gocql.Consistency
	ProtoVersion           int
	CQLVersion             string
	MaxSchemaAgreementWait time.Duration

	Pool   PoolConfig
	Socket SocketConfig
	Retry  RetryPolicy

	Telemetry          TelemetryConfig
	SlowQueryThreshold time.Duration

	// Policy objects handed to the driver as-is.
	AddressTranslator    gocql.AddressTranslator
	SpeculativeExecution gocql.SpeculativeExecutionPolicy
	Timestamps           TimestampGenerator

	// Configurer, when set, observes and may adjust the final driver config.
	Configurer ClusterBuilderConfigurer
}

// DefaultPoolConfig mirrors a small production topology: a few warm local
// connections, a thin remote failover path.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Local:             PoolingProfile{CoreConnectionsPerHost: 2, MaxConnectionsPerHost: 8, MaxRequestsPerConnection: 1024, NewConnectionThreshold: 800},
		Remote:            PoolingProfile{CoreConnectionsPerHost: 1, MaxConnectionsPerHost: 2, MaxRequestsPerConnection: 256, NewConnectionThreshold: 200},
		HeartbeatInterval: 30 * time.Second,
		IdleTimeout:       120 * time.Second,
		PoolTimeout:       5 * time.Second,
	}
}

// DefaultSocketConfig keeps the connection path snappy without touching the
// OS buffer defaults.
func DefaultSocketConfig() SocketConfig {
	return SocketConfig{
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    12 * time.Second,
		KeepAlive:      true,
		SoLinger:       -1,
		TCPNoDelay:     true,
	}
}

// contactPointsFromConfig returns the flattened contact point list in stable
// order. Empty config falls back to localhost.
func contactPointsFromConfig(c Config) []string {
	var out []string
	for _, h := range c.Hosts {
		for _, part := range strings.Split(h, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	if len(out) == 0 {
		out = []string{"127.0.0.1"}
	}
	return out
}

// validatePooling checks both distance profiles before a pool is built.
func validatePooling(pc PoolConfig) error {
	if err := pc.Local.validate(HostLocal); err != nil {
		return err
	}
	return pc.Remote.validate(HostRemote)
}

// profile returns the pooling profile for a distance class.
func (pc PoolConfig) profile(d HostDistance) PoolingProfile {
	if d == HostLocal {
		return pc.Local
	}
	return pc.Remote
}
