package ygggo_cassandra

import (
	"context"
	"net"
	"time"

	"github.com/gocql/gocql"
)

// socketDialer applies SocketConfig to every connection the driver opens.
// Options that only exist on TCP sockets are applied after the dial.
type socketDialer struct {
	cfg SocketConfig
}

func (d socketDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	nd := net.Dialer{Timeout: d.cfg.ConnectTimeout}
	if d.cfg.KeepAlive {
		nd.KeepAlive = 15 * time.Second
	} else {
		nd.KeepAlive = -1
	}
	conn, err := nd.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(d.cfg.TCPNoDelay)
		if d.cfg.SoLinger >= 0 {
			_ = tc.SetLinger(d.cfg.SoLinger)
		}
		if d.cfg.ReceiveBufferSize > 0 {
			_ = tc.SetReadBuffer(d.cfg.ReceiveBufferSize)
		}
		if d.cfg.SendBufferSize > 0 {
			_ = tc.SetWriteBuffer(d.cfg.SendBufferSize)
		}
	}
	return conn, nil
}

// clusterFromConfig assembles the driver cluster config. The optional
// Configurer hook runs exactly once, after every other knob is applied.
func clusterFromConfig(cfg Config) (*gocql.ClusterConfig, error) {
	if err := validatePooling(cfg.Pool); err != nil {
		return nil, err
	}

	cluster := gocql.NewCluster(contactPointsFromConfig(cfg)...)
	if cfg.Port > 0 {
		cluster.Port = cfg.Port
	}
	cluster.Keyspace = cfg.Keyspace
	if cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{Username: cfg.Username, Password: cfg.Password}
	}
	if cfg.Consistency > gocql.Any {
		cluster.Consistency = cfg.Consistency
	}
	if cfg.ProtoVersion > 0 {
		cluster.ProtoVersion = cfg.ProtoVersion
	}
	if cfg.CQLVersion != "" {
		cluster.CQLVersion = cfg.CQLVersion
	}
	if cfg.MaxSchemaAgreementWait > 0 {
		cluster.MaxWaitSchemaAgreement = cfg.MaxSchemaAgreementWait
	}

	// Socket profile. The driver exposes one read timeout and one connect
	// timeout; buffer sizes, linger and nodelay ride on the dialer.
	if cfg.Socket.ConnectTimeout > 0 {
		cluster.ConnectTimeout = cfg.Socket.ConnectTimeout
	}
	if cfg.Socket.ReadTimeout > 0 {
		cluster.Timeout = cfg.Socket.ReadTimeout
	}
	if cfg.Socket.KeepAlive {
		cluster.SocketKeepalive = cfg.Pool.HeartbeatInterval
	}
	cluster.Dialer = socketDialer{cfg: cfg.Socket}

	// Distance-aware pooling. The driver sizes connections per host with a
	// single knob; the LOCAL core count seeds it and the lease semaphores
	// in the pool enforce the per-distance request ceilings.
	if cfg.Pool.Local.CoreConnectionsPerHost > 0 {
		cluster.NumConns = cfg.Pool.Local.CoreConnectionsPerHost
	}
	if cfg.LocalDC != "" {
		cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(
			gocql.DCAwareRoundRobinPolicy(cfg.LocalDC))
	} else {
		cluster.PoolConfig.HostSelectionPolicy = gocql.RoundRobinHostPolicy()
	}

	if cfg.AddressTranslator != nil {
		cluster.AddressTranslator = cfg.AddressTranslator
	}

	if cfg.Configurer != nil {
		if out := cfg.Configurer(cluster); out != nil {
			cluster = out
		}
	}
	return cluster, nil
}
