package ygggo_cassandra

import (
	"context"
	"sync"
	"time"
)

// HealthStatus represents the overall health of the pool.
type HealthStatus struct {
	Healthy        bool           `json:"healthy"`
	LastChecked    time.Time      `json:"last_checked"`
	ResponseTime   time.Duration  `json:"response_time"`
	ReleaseVersion string         `json:"release_version,omitempty"`
	SessionsInUse  int64          `json:"sessions_in_use"`
	SessionsMax    int            `json:"sessions_max"`
	Errors         []HealthError  `json:"errors,omitempty"`
	Details        map[string]any `json:"details,omitempty"`
}

// HealthError represents a health check error.
type HealthError struct {
	Type        string    `json:"type"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	Recoverable bool      `json:"recoverable"`
}

// HealthCheckConfig configures health check behavior.
type HealthCheckConfig struct {
	Timeout            time.Duration `json:"timeout"`
	RetryAttempts      int           `json:"retry_attempts"`
	RetryBackoff       time.Duration `json:"retry_backoff"`
	TestStatement      string        `json:"test_statement"`
	MonitoringEnabled  bool          `json:"monitoring_enabled"`
	MonitoringInterval time.Duration `json:"monitoring_interval"`
}

// DefaultHealthCheckConfig returns default health check configuration.
func DefaultHealthCheckConfig() HealthCheckConfig {
	return HealthCheckConfig{
		Timeout:            5 * time.Second,
		RetryAttempts:      3,
		RetryBackoff:       time.Second,
		TestStatement:      "SELECT release_version FROM system.local",
		MonitoringEnabled:  false,
		MonitoringInterval: 30 * time.Second,
	}
}

// HealthCheck runs one probe query and returns the observed status.
func (p *Pool) HealthCheck(ctx context.Context, cfg HealthCheckConfig) HealthStatus {
	if cfg.TestStatement == "" {
		cfg = DefaultHealthCheckConfig()
	}
	status := HealthStatus{
		LastChecked:   time.Now(),
		SessionsInUse: p.inUse[HostLocal].Load() + p.inUse[HostRemote].Load(),
		SessionsMax:   cap(p.leases[HostLocal]) + cap(p.leases[HostRemote]),
		Details:       map[string]any{},
	}
	if p.cfg.ClusterName != "" {
		status.Details["cluster_name"] = p.cfg.ClusterName
	}
	if p.cfg.Keyspace != "" {
		status.Details["keyspace"] = p.cfg.Keyspace
	}

	checkCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		checkCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	var version string
	err := p.WithSession(checkCtx, func(s *Session) error {
		return s.QueryStream(checkCtx, cfg.TestStatement, func(row map[string]any) error {
			if v, ok := row["release_version"].(string); ok {
				version = v
			}
			return nil
		})
	})
	status.ResponseTime = time.Since(start)
	status.ReleaseVersion = version
	if err != nil {
		status.Errors = append(status.Errors, HealthError{
			Type:        "probe",
			Message:     err.Error(),
			Timestamp:   time.Now(),
			Recoverable: Classify(err) == ErrClassRetryable,
		})
		return status
	}
	status.Healthy = true
	return status
}

// HealthMonitor re-checks pool health on an interval until stopped.
type HealthMonitor struct {
	pool        *Pool
	config      HealthCheckConfig
	status      *HealthStatus
	statusMutex sync.RWMutex
	stopChan    chan struct{}
	stopOnce    sync.Once
}

// NewHealthMonitor creates a monitor bound to pool; Start begins polling.
func NewHealthMonitor(pool *Pool, cfg HealthCheckConfig) *HealthMonitor {
	if cfg.MonitoringInterval <= 0 {
		cfg.MonitoringInterval = DefaultHealthCheckConfig().MonitoringInterval
	}
	return &HealthMonitor{pool: pool, config: cfg, stopChan: make(chan struct{})}
}

// Start launches the monitoring goroutine.
func (m *HealthMonitor) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(m.config.MonitoringInterval)
		defer ticker.Stop()
		for {
			select {
			case <-m.stopChan:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				status := m.pool.HealthCheck(ctx, m.config)
				m.statusMutex.Lock()
				m.status = &status
				m.statusMutex.Unlock()
			}
		}
	}()
}

// Status returns the most recent observed status, or nil before the first
// tick.
func (m *HealthMonitor) Status() *HealthStatus {
	m.statusMutex.RLock()
	defer m.statusMutex.RUnlock()
	return m.status
}

// Stop halts monitoring. Idempotent.
func (m *HealthMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}
