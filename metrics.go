package ygggo_cassandra

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const metricsInstrumentationName = "github.com/yggai/ygggo_cassandra"

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool
}

// Metrics holds all the metric instruments.
type Metrics struct {
	sessionsActive metric.Int64UpDownCounter
	sessionsTotal  metric.Int64Counter

	queriesTotal  metric.Int64Counter
	queryDuration metric.Float64Histogram

	bindFailures metric.Int64Counter
}

var defaultMeter = otel.Meter(metricsInstrumentationName)

// EnableMetrics enables or disables metrics collection for this pool.
func (p *Pool) EnableMetrics(enabled bool) {
	if p == nil {
		return
	}
	p.metricsEnabled = enabled
	if enabled && p.metrics == nil {
		p.initMetrics()
	}
}

// SetMeterProvider sets a custom meter provider for metrics.
func (p *Pool) SetMeterProvider(provider metric.MeterProvider) {
	if p == nil {
		return
	}
	p.meterProvider = provider
	if p.metricsEnabled {
		p.initMetrics()
	}
}

func (p *Pool) initMetrics() {
	meter := defaultMeter
	if p.meterProvider != nil {
		meter = p.meterProvider.Meter(metricsInstrumentationName)
	}
	m := &Metrics{}
	m.sessionsActive, _ = meter.Int64UpDownCounter("ygggo_cassandra.sessions.active",
		metric.WithDescription("Session leases currently held"))
	m.sessionsTotal, _ = meter.Int64Counter("ygggo_cassandra.sessions.total",
		metric.WithDescription("Session leases granted"))
	m.queriesTotal, _ = meter.Int64Counter("ygggo_cassandra.queries.total",
		metric.WithDescription("Queries executed"))
	m.queryDuration, _ = meter.Float64Histogram("ygggo_cassandra.query.duration",
		metric.WithDescription("Query duration in milliseconds"),
		metric.WithUnit("ms"))
	m.bindFailures, _ = meter.Int64Counter("ygggo_cassandra.bind.failures",
		metric.WithDescription("Parameter binding failures"))
	p.metrics = m
}

func (p *Pool) onSessionBorrow(d HostDistance) {
	if p == nil || !p.metricsEnabled || p.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("distance", d.String()))
	p.metrics.sessionsActive.Add(context.Background(), 1, attrs)
	p.metrics.sessionsTotal.Add(context.Background(), 1, attrs)
}

func (p *Pool) onSessionReturn(d HostDistance) {
	if p == nil || !p.metricsEnabled || p.metrics == nil {
		return
	}
	p.metrics.sessionsActive.Add(context.Background(), -1,
		metric.WithAttributes(attribute.String("distance", d.String())))
}

func (p *Pool) onBindFailure() {
	if p == nil || !p.metricsEnabled || p.metrics == nil {
		return
	}
	p.metrics.bindFailures.Add(context.Background(), 1)
}

func (p *Pool) recordQueryMetrics(ctx context.Context, operation string, duration time.Duration, err error) {
	if p == nil || !p.metricsEnabled || p.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
	p.metrics.queriesTotal.Add(ctx, 1, attrs)
	p.metrics.queryDuration.Record(ctx, float64(duration.Nanoseconds())/1e6, attrs)
}
