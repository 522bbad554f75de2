package ygggo_cassandra

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

// These tests run against the container TestMain manages; set
// YGGGO_CASSANDRA_INTEGRATION=1 to enable them.

func TestIntegration_PingAndRoundTrip(t *testing.T) {
	if !integrationEnabled() {
		t.Skip("integration disabled")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	h, err := NewTestHelper(ctx)
	if err != nil {
		t.Fatalf("NewTestHelper: %v", err)
	}
	defer h.Close()
	pool := h.Pool()

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	err = pool.WithSession(ctx, func(s *Session) error {
		if err := s.Exec(ctx, `CREATE KEYSPACE IF NOT EXISTS ygggo_it
			WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}`); err != nil {
			return err
		}
		if err := s.Exec(ctx, `CREATE TABLE IF NOT EXISTS ygggo_it.events (
			id uuid PRIMARY KEY, day date, at timestamp, note text)`); err != nil {
			return err
		}

		id := uuid.New()
		at := time.Now().UTC().Truncate(time.Millisecond)
		if err := s.Exec(ctx,
			"INSERT INTO ygggo_it.events (id, day, at, note) VALUES (?0, ?1, ?2, ?3)",
			id, ArgTyped(at, WireDate), at, "hello"); err != nil {
			return err
		}

		rows, err := s.Query(ctx, "SELECT id, note FROM ygggo_it.events WHERE id = ?0", id)
		if err != nil {
			return err
		}
		defer rows.Close()
		m := map[string]any{}
		if !rows.ScanMap(m) {
			t.Fatal("inserted row not found")
		}
		if m["note"] != "hello" {
			t.Fatalf("note = %v", m["note"])
		}
		if got, ok := m["id"].(uuid.UUID); !ok || got != id {
			t.Fatalf("id = %T %v", m["id"], m["id"])
		}
		return rows.Close()
	})
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
}

func TestIntegration_BatchAndStream(t *testing.T) {
	if !integrationEnabled() {
		t.Skip("integration disabled")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	h, err := NewTestHelper(ctx)
	if err != nil {
		t.Fatalf("NewTestHelper: %v", err)
	}
	defer h.Close()

	err = h.Pool().WithSession(ctx, func(s *Session) error {
		if err := s.Exec(ctx, `CREATE TABLE IF NOT EXISTS ygggo_it.kv (
			k text PRIMARY KEY, v text)`); err != nil {
			return err
		}
		b := NewBatch().
			Add("INSERT INTO ygggo_it.kv (k, v) VALUES (?0, ?1)", "a", "1").
			Add("INSERT INTO ygggo_it.kv (k, v) VALUES (?0, ?1)", "b", "2")
		if err := s.ExecBatch(ctx, b); err != nil {
			return err
		}
		n := 0
		if err := s.QueryStream(ctx, "SELECT k, v FROM ygggo_it.kv", func(map[string]any) error {
			n++
			return nil
		}); err != nil {
			return err
		}
		if n < 2 {
			t.Fatalf("streamed %d rows, want >= 2", n)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("batch/stream: %v", err)
	}
}
