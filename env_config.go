package ygggo_cassandra

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gocql/gocql"
)

// Environment keys understood by applyEnv. Every knob of the pooling and
// socket surface is independently settable.
const (
	EnvHosts       = "YGGGO_CASSANDRA_HOSTS"
	EnvPort        = "YGGGO_CASSANDRA_PORT"
	EnvKeyspace    = "YGGGO_CASSANDRA_KEYSPACE"
	EnvUsername    = "YGGGO_CASSANDRA_USERNAME"
	EnvPassword    = "YGGGO_CASSANDRA_PASSWORD"
	EnvLocalDC     = "YGGGO_CASSANDRA_LOCAL_DC"
	EnvConsistency = "YGGGO_CASSANDRA_CONSISTENCY"

	EnvPoolTimeoutMS      = "YGGGO_CASSANDRA_POOL_TIMEOUT_MS"
	EnvHeartbeatIntervalS = "YGGGO_CASSANDRA_HEARTBEAT_INTERVAL_S"
	EnvIdleTimeoutS       = "YGGGO_CASSANDRA_IDLE_TIMEOUT_S"

	EnvLocalCoreConns         = "YGGGO_CASSANDRA_LOCAL_CORE_CONNS"
	EnvLocalMaxConns          = "YGGGO_CASSANDRA_LOCAL_MAX_CONNS"
	EnvLocalMaxRequests       = "YGGGO_CASSANDRA_LOCAL_MAX_REQUESTS"
	EnvLocalNewConnThreshold  = "YGGGO_CASSANDRA_LOCAL_NEW_CONN_THRESHOLD"
	EnvRemoteCoreConns        = "YGGGO_CASSANDRA_REMOTE_CORE_CONNS"
	EnvRemoteMaxConns         = "YGGGO_CASSANDRA_REMOTE_MAX_CONNS"
	EnvRemoteMaxRequests      = "YGGGO_CASSANDRA_REMOTE_MAX_REQUESTS"
	EnvRemoteNewConnThreshold = "YGGGO_CASSANDRA_REMOTE_NEW_CONN_THRESHOLD"

	EnvSocketConnectTimeoutMS = "YGGGO_CASSANDRA_SOCKET_CONNECT_TIMEOUT_MS"
	EnvSocketReadTimeoutMS    = "YGGGO_CASSANDRA_SOCKET_READ_TIMEOUT_MS"
	EnvSocketKeepAlive        = "YGGGO_CASSANDRA_SOCKET_KEEPALIVE"
	EnvSocketRecvBuffer       = "YGGGO_CASSANDRA_SOCKET_RECV_BUFFER"
	EnvSocketSendBuffer       = "YGGGO_CASSANDRA_SOCKET_SEND_BUFFER"
	EnvSocketReuseAddress     = "YGGGO_CASSANDRA_SOCKET_REUSE_ADDRESS"
	EnvSocketSoLinger         = "YGGGO_CASSANDRA_SOCKET_SO_LINGER"
	EnvSocketTCPNoDelay       = "YGGGO_CASSANDRA_SOCKET_TCP_NODELAY"
)

func envStr(key string, dst *string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func envDuration(key string, unit time.Duration, dst *time.Duration) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			*dst = time.Duration(n) * unit
		}
	}
}

// applyEnv overlays YGGGO_CASSANDRA_* variables onto cfg. Unset variables
// leave the corresponding field untouched.
func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvHosts)); v != "" {
		cfg.Hosts = strings.Split(v, ",")
	}
	envInt(EnvPort, &cfg.Port)
	envStr(EnvKeyspace, &cfg.Keyspace)
	envStr(EnvUsername, &cfg.Username)
	envStr(EnvPassword, &cfg.Password)
	envStr(EnvLocalDC, &cfg.LocalDC)
	if v := strings.TrimSpace(os.Getenv(EnvConsistency)); v != "" {
		if c, err := gocql.ParseConsistencyWrapper(v); err == nil {
			cfg.Consistency = c
		}
	}

	if cfg.Pool == (PoolConfig{}) {
		cfg.Pool = DefaultPoolConfig()
	}
	envDuration(EnvPoolTimeoutMS, time.Millisecond, &cfg.Pool.PoolTimeout)
	envDuration(EnvHeartbeatIntervalS, time.Second, &cfg.Pool.HeartbeatInterval)
	envDuration(EnvIdleTimeoutS, time.Second, &cfg.Pool.IdleTimeout)
	envInt(EnvLocalCoreConns, &cfg.Pool.Local.CoreConnectionsPerHost)
	envInt(EnvLocalMaxConns, &cfg.Pool.Local.MaxConnectionsPerHost)
	envInt(EnvLocalMaxRequests, &cfg.Pool.Local.MaxRequestsPerConnection)
	envInt(EnvLocalNewConnThreshold, &cfg.Pool.Local.NewConnectionThreshold)
	envInt(EnvRemoteCoreConns, &cfg.Pool.Remote.CoreConnectionsPerHost)
	envInt(EnvRemoteMaxConns, &cfg.Pool.Remote.MaxConnectionsPerHost)
	envInt(EnvRemoteMaxRequests, &cfg.Pool.Remote.MaxRequestsPerConnection)
	envInt(EnvRemoteNewConnThreshold, &cfg.Pool.Remote.NewConnectionThreshold)

	if cfg.Socket == (SocketConfig{}) {
		cfg.Socket = DefaultSocketConfig()
	}
	envDuration(EnvSocketConnectTimeoutMS, time.Millisecond, &cfg.Socket.ConnectTimeout)
	envDuration(EnvSocketReadTimeoutMS, time.Millisecond, &cfg.Socket.ReadTimeout)
	envBool(EnvSocketKeepAlive, &cfg.Socket.KeepAlive)
	envInt(EnvSocketRecvBuffer, &cfg.Socket.ReceiveBufferSize)
	envInt(EnvSocketSendBuffer, &cfg.Socket.SendBufferSize)
	envBool(EnvSocketReuseAddress, &cfg.Socket.ReuseAddress)
	envInt(EnvSocketSoLinger, &cfg.Socket.SoLinger)
	envBool(EnvSocketTCPNoDelay, &cfg.Socket.TCPNoDelay)
}

// NewPoolEnv builds a pool entirely from environment configuration.
func NewPoolEnv(ctx context.Context) (*Pool, error) {
	cfg := Config{}
	applyEnv(&cfg)
	return NewPool(ctx, cfg)
}
