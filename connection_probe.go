package ygggo_cassandra

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"
)

// ProbeStatus represents the current status of contact point probing.
type ProbeStatus int

const (
	ProbeStatusHealthy ProbeStatus = iota
	ProbeStatusUnhealthy
	ProbeStatusFailed
)

func (s ProbeStatus) String() string {
	switch s {
	case ProbeStatusHealthy:
		return "Healthy"
	case ProbeStatusUnhealthy:
		return "Unhealthy"
	case ProbeStatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// ProbeConfig configures contact point probing behavior.
type ProbeConfig struct {
	Interval         time.Duration `json:"interval"`
	Timeout          time.Duration `json:"timeout"`
	FailureThreshold int           `json:"failure_threshold"`
	SuccessThreshold int           `json:"success_threshold"`
	Jitter           bool          `json:"jitter"`
}

// DefaultProbeConfig returns sane probing defaults.
func DefaultProbeConfig() ProbeConfig {
	return ProbeConfig{
		Interval:         15 * time.Second,
		Timeout:          3 * time.Second,
		FailureThreshold: 3,
		SuccessThreshold: 1,
		Jitter:           true,
	}
}

// ProbeState is the current state of contact point probing.
type ProbeState struct {
	Status           ProbeStatus `json:"status"`
	LastProbeTime    time.Time   `json:"last_probe_time"`
	ConsecutiveFails int         `json:"consecutive_fails"`
	LastError        string      `json:"last_error,omitempty"`
}

// ConnectionProbe periodically dials the cluster's contact points on the
// native protocol port to detect reachability loss before queries do.
type ConnectionProbe struct {
	cfg      ProbeConfig
	hosts    []string
	port     int
	mu       sync.RWMutex
	state    ProbeState
	okStreak int
	stop     chan struct{}
	once     sync.Once
	dialFn   func(ctx context.Context, addr string) error
}

// NewConnectionProbe builds a probe for the pool's contact points.
func (p *Pool) NewConnectionProbe(cfg ProbeConfig) *ConnectionProbe {
	if cfg.Interval <= 0 {
		cfg = DefaultProbeConfig()
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 1
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 1
	}
	port := p.cfg.Port
	if port <= 0 {
		port = 9042
	}
	return &ConnectionProbe{
		cfg:   cfg,
		hosts: contactPointsFromConfig(p.cfg),
		port:  port,
		stop:  make(chan struct{}),
		dialFn: func(ctx context.Context, addr string) error {
			d := net.Dialer{}
			conn, err := d.DialContext(ctx, "tcp", addr)
			if err != nil {
				return err
			}
			return conn.Close()
		},
	}
}

// probeOnce dials every contact point; one reachable host is enough.
func (c *ConnectionProbe) probeOnce(ctx context.Context) error {
	probeCtx := ctx
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	var lastErr error
	for _, h := range c.hosts {
		addr := h
		if _, _, err := net.SplitHostPort(h); err != nil {
			addr = fmt.Sprintf("%s:%d", h, c.port)
		}
		if err := c.dialFn(probeCtx, addr); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no contact points configured")
	}
	return lastErr
}

// Start runs the probe loop until Stop or ctx cancellation.
func (c *ConnectionProbe) Start(ctx context.Context) {
	go func() {
		for {
			interval := c.cfg.Interval
			if q := int64(interval) / 4; c.cfg.Jitter && q > 0 {
				interval += time.Duration(rand.Int63n(q))
			}
			select {
			case <-c.stop:
				return
			case <-ctx.Done():
				return
			case <-time.After(interval):
			}
			err := c.probeOnce(ctx)
			c.mu.Lock()
			c.state.LastProbeTime = time.Now()
			if err != nil {
				c.okStreak = 0
				c.state.ConsecutiveFails++
				c.state.LastError = err.Error()
				if c.state.ConsecutiveFails >= c.cfg.FailureThreshold {
					c.state.Status = ProbeStatusFailed
				} else {
					c.state.Status = ProbeStatusUnhealthy
				}
			} else {
				c.state.ConsecutiveFails = 0
				c.state.LastError = ""
				c.okStreak++
				// a degraded probe must string together SuccessThreshold
				// clean rounds before it reports healthy again
				if c.state.Status == ProbeStatusHealthy || c.okStreak >= c.cfg.SuccessThreshold {
					c.state.Status = ProbeStatusHealthy
				}
			}
			c.mu.Unlock()
		}
	}()
}

// State returns a snapshot of the probe state.
func (c *ConnectionProbe) State() ProbeState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Stop halts probing. Idempotent.
func (c *ConnectionProbe) Stop() {
	c.once.Do(func() { close(c.stop) })
}
