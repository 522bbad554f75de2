package ygggo_cassandra

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName    = "github.com/yggai/ygggo_cassandra"
	instrumentationVersion = "v0.1.0"
)

// TelemetryConfig holds telemetry configuration.
type TelemetryConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
}

var tracer = otel.Tracer(instrumentationName, trace.WithInstrumentationVersion(instrumentationVersion))

// EnableTelemetry enables or disables OpenTelemetry tracing for this pool.
func (p *Pool) EnableTelemetry(enabled bool) {
	if p == nil {
		return
	}
	p.telemetryEnabled = enabled
}

// startSpan creates a new span with common database attributes.
func (p *Pool) startSpan(ctx context.Context, operation, stmt string) (context.Context, trace.Span) {
	if p == nil || !p.telemetryEnabled {
		return ctx, trace.SpanFromContext(ctx)
	}
	spanName := fmt.Sprintf("ygggo_cassandra.%s", operation)
	ctx, span := tracer.Start(ctx, spanName)
	span.SetAttributes(
		attribute.String("db.system", "cassandra"),
		attribute.String("db.operation", operation),
	)
	if p.cfg.Keyspace != "" {
		span.SetAttributes(attribute.String("db.name", p.cfg.Keyspace))
	}
	if stmt != "" {
		span.SetAttributes(attribute.String("db.statement", stmt))
	}
	return ctx, span
}

// finishSpan completes a span with error handling.
func (p *Pool) finishSpan(span trace.Span, err error) {
	if p == nil || !p.telemetryEnabled {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
