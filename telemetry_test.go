package ygggo_cassandra

import (
	"context"
	"testing"
)

func TestTelemetry_DisabledIsInert(t *testing.T) {
	p, exp := mockPool(t, Config{})
	exp.ExpectExec(`SELECT now\(\)`)
	err := p.WithSession(context.Background(), func(s *Session) error {
		return s.Exec(context.Background(), "SELECT now() FROM system.local")
	})
	if err != nil {
		t.Fatalf("Exec with telemetry off: %v", err)
	}
}

func TestTelemetry_EnabledQueriesStillRun(t *testing.T) {
	// no SDK installed: the global tracer is a no-op, the query path must
	// not notice
	p, exp := mockPool(t, Config{Keyspace: "app"})
	p.EnableTelemetry(true)

	exp.ExpectQuery(`SELECT name FROM users`).WillReturnRows(map[string]any{"name": "a"})
	err := p.WithSession(context.Background(), func(s *Session) error {
		return s.QueryStream(context.Background(), "SELECT name FROM users", func(map[string]any) error {
			return nil
		})
	})
	if err != nil {
		t.Fatalf("Query with telemetry on: %v", err)
	}
	if err := exp.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMetrics_EnableIsIdempotentAndInert(t *testing.T) {
	p, exp := mockPool(t, Config{})
	p.EnableMetrics(true)
	p.EnableMetrics(true)

	exp.ExpectExec(`INSERT INTO t`)
	err := p.WithSession(context.Background(), func(s *Session) error {
		return s.Exec(context.Background(), "INSERT INTO t (a) VALUES (?0)", "v")
	})
	if err != nil {
		t.Fatalf("Exec with metrics on: %v", err)
	}

	// bind failures route through the counter without breaking the error
	err = p.WithSession(context.Background(), func(s *Session) error {
		return s.Exec(context.Background(), "INSERT INTO t (a) VALUES (?0)")
	})
	if err == nil {
		t.Fatal("arity error expected")
	}
}
