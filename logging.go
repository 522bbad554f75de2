package ygggo_cassandra

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Enabled            bool
	SlowQueryThreshold time.Duration
	Level              slog.Level
}

var defaultLogger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
	Level: slog.LevelInfo,
}))

// EnableLogging enables or disables structured logging for this pool.
func (p *Pool) EnableLogging(enabled bool) {
	if p == nil {
		return
	}
	p.loggingEnabled = enabled
	if enabled && p.logger == nil {
		p.logger = defaultLogger
	}
}

// SetLogger sets a custom logger for this pool.
func (p *Pool) SetLogger(logger *slog.Logger) {
	if p == nil {
		return
	}
	p.logger = logger
}

// logQuery logs query execution with structured fields.
func (p *Pool) logQuery(ctx context.Context, operation, stmt string, args []any, duration time.Duration, err error) {
	if p == nil || !p.loggingEnabled || p.logger == nil {
		return
	}
	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("statement", stmt),
		slog.Float64("duration_ms", float64(duration.Nanoseconds())/1e6),
	}
	// Argument values stay out of the log; only the count goes in.
	if len(args) > 0 {
		attrs = append(attrs, slog.Int("arg_count", len(args)))
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		p.logger.LogAttrs(ctx, slog.LevelError, "cassandra query failed", attrs...)
		return
	}
	level := slog.LevelDebug
	if th := p.cfg.SlowQueryThreshold; th > 0 && duration >= th {
		level = slog.LevelWarn
		attrs = append(attrs, slog.Bool("slow", true))
	}
	p.logger.LogAttrs(ctx, level, "cassandra query", attrs...)
}

// observeQuery fans one finished query out to logging, metrics and the slow
// query log.
func (p *Pool) observeQuery(ctx context.Context, operation, stmt string, args []any, duration time.Duration, err error) {
	if p == nil {
		return
	}
	p.logQuery(ctx, operation, stmt, args, duration, err)
	p.recordQueryMetrics(ctx, operation, duration, err)
	if p.slowLog != nil {
		p.slowLog.observe(stmt, duration, err)
	}
}
