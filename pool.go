package ygggo_cassandra

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gocql/gocql"
	"go.opentelemetry.io/otel/metric"
)

const defaultTemplateCacheCapacity = 256

const (
	poolBuilt int32 = iota
	poolClosed
)

// Pool is a distance-aware session pool over one cluster. It is built once,
// shared across goroutines without caller-side locking, and closed exactly
// once; Closed is terminal.
type Pool struct {
	cfg     Config
	cluster *gocql.ClusterConfig
	sess    cqlSession
	reg     *Registry
	tpls    *templateCache

	state  atomic.Int32
	leases [2]chan struct{} // indexed by HostDistance
	inUse  [2]atomic.Int64

	waitCount atomic.Int64
	waitNanos atomic.Int64

	logger           *slog.Logger
	loggingEnabled   bool
	telemetryEnabled bool
	metricsEnabled   bool
	metrics          *Metrics
	meterProvider    metric.MeterProvider
	slowLog          *SlowQueryLog
}

// NewPool validates cfg, builds the cluster topology and opens the driver
// session. The Configurer hook, when present, is invoked exactly once.
func NewPool(ctx context.Context, cfg Config) (*Pool, error) {
	return newPool(ctx, cfg, gocqlSessionFactory)
}

func newPool(ctx context.Context, cfg Config, factory sessionFactory) (*Pool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.Pool == (PoolConfig{}) {
		cfg.Pool = DefaultPoolConfig()
	}
	if cfg.Socket == (SocketConfig{}) {
		cfg.Socket = DefaultSocketConfig()
	}
	if cfg.Timestamps == nil {
		cfg.Timestamps = NewMonotonicTimestampGenerator()
	}

	cluster, err := clusterFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	sess, err := factory(cluster)
	if err != nil {
		return nil, err
	}

	p := &Pool{
		cfg:     cfg,
		cluster: cluster,
		sess:    sess,
		reg:     NewRegistry(),
		tpls:    newTemplateCache(defaultTemplateCacheCapacity),
		slowLog: newSlowQueryLog(cfg.SlowQueryThreshold),
	}
	p.leases[HostLocal] = make(chan struct{}, cfg.Pool.Local.leaseCapacity())
	p.leases[HostRemote] = make(chan struct{}, cfg.Pool.Remote.leaseCapacity())
	p.state.Store(poolBuilt)
	return p, nil
}

// Registry returns the pool's conversion registry. Swapping its rule set via
// Register applies to all subsequent binds at once.
func (p *Pool) Registry() *Registry { return p.reg }

// SetCustomConversions replaces the active conversion rule set as a unit.
func (p *Pool) SetCustomConversions(rules []ConversionRule) {
	p.reg.Register(rules)
}

// AcquireSession leases a LOCAL session handle. The lease must be released
// with Session.Close.
func (p *Pool) AcquireSession(ctx context.Context) (*Session, error) {
	return p.acquire(ctx, HostLocal)
}

// AcquireSessionDistance leases a session handle for the given distance class.
func (p *Pool) AcquireSessionDistance(ctx context.Context, d HostDistance) (*Session, error) {
	return p.acquire(ctx, d)
}

// WithSession acquires a session, calls fn and always releases the lease.
func (p *Pool) WithSession(ctx context.Context, fn func(*Session) error) error {
	s, err := p.AcquireSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func (p *Pool) acquire(ctx context.Context, d HostDistance) (*Session, error) {
	if p == nil || p.state.Load() == poolClosed {
		return nil, ErrPoolClosed
	}
	sem := p.leases[d]
	start := time.Now()

	timeout := p.cfg.Pool.PoolTimeout
	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}

	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-expired:
		return nil, fmt.Errorf("%w: no %s lease within %s", ErrPoolTimeout, d, timeout)
	}

	// Close may have raced the wait; a lease on a closed pool is handed back.
	if p.state.Load() == poolClosed {
		<-sem
		return nil, ErrPoolClosed
	}

	p.inUse[d].Add(1)
	p.waitCount.Add(1)
	p.waitNanos.Add(time.Since(start).Nanoseconds())
	p.onSessionBorrow(d)
	return &Session{p: p, distance: d}, nil
}

func (p *Pool) release(d HostDistance) {
	select {
	case <-p.leases[d]:
		p.inUse[d].Add(-1)
		p.onSessionReturn(d)
	default:
		// double release; nothing held
	}
}

// Ping verifies the store answers on a leased session.
func (p *Pool) Ping(ctx context.Context) error {
	return p.WithSession(ctx, func(s *Session) error {
		return s.Exec(ctx, "SELECT release_version FROM system.local")
	})
}

// Close releases all underlying connections. The pool cannot be rebuilt; any
// later acquire fails with ErrPoolClosed. Closing twice is a no-op.
func (p *Pool) Close() error {
	if p == nil {
		return nil
	}
	if !p.state.CompareAndSwap(poolBuilt, poolClosed) {
		return nil
	}
	if p.sess != nil {
		p.sess.close()
	}
	if p.slowLog != nil {
		p.slowLog.stop()
	}
	return nil
}

// Closed reports whether Close has run.
func (p *Pool) Closed() bool { return p != nil && p.state.Load() == poolClosed }

// PoolStats is a point-in-time snapshot of lease usage.
type PoolStats struct {
	Closed        bool          `json:"closed"`
	LocalInUse    int64         `json:"local_in_use"`
	LocalCap      int           `json:"local_cap"`
	RemoteInUse   int64         `json:"remote_in_use"`
	RemoteCap     int           `json:"remote_cap"`
	WaitCount     int64         `json:"wait_count"`
	TotalWaitTime time.Duration `json:"total_wait_time"`
}

// Stats returns current lease usage counters.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Closed:        p.Closed(),
		LocalInUse:    p.inUse[HostLocal].Load(),
		LocalCap:      cap(p.leases[HostLocal]),
		RemoteInUse:   p.inUse[HostRemote].Load(),
		RemoteCap:     cap(p.leases[HostRemote]),
		WaitCount:     p.waitCount.Load(),
		TotalWaitTime: time.Duration(p.waitNanos.Load()),
	}
}

// TemplateCacheStats exposes parse-cache hit counters.
func (p *Pool) TemplateCacheStats() (hits, misses uint64) {
	return p.tpls.stats()
}
