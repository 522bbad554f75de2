// Package ygggo_cassandra provides a production-ready Cassandra access layer for Go.
//
// # Overview
//
// ygggo_cassandra sits on top of the gocql driver and adds the pieces a
// service needs around it:
//   - A distance-aware session pool (LOCAL vs REMOTE pooling profiles,
//     bounded acquire with pool timeout, strict built/closed lifecycle)
//   - Typed parameter binding for ?0-style positional templates, with a
//     hot-swappable type conversion registry
//   - Socket-level tuning (connect/read timeouts, keepalive, buffers,
//     linger, nodelay) applied through a custom driver dialer
//   - Comprehensive observability (structured logging, OpenTelemetry
//     tracing and metrics, slow query capture)
//
// # Quick Start
//
//	import ggc "github.com/yggai/ygggo_cassandra"
//
//	cfg := ggc.Config{
//		Hosts:    []string{"10.0.0.1", "10.0.0.2"},
//		Keyspace: "orders",
//		LocalDC:  "dc1",
//	}
//
//	ctx := context.Background()
//	pool, err := ggc.NewPool(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pool.Close()
//
//	err = pool.WithSession(ctx, func(s *ggc.Session) error {
//		return s.Exec(ctx, "INSERT INTO users (id, name) VALUES (?0, ?1)", id, "Alice")
//	})
//
// # Parameter Binding
//
// Statements use zero-indexed positional placeholders. Arguments may be plain
// values, Optional wrappers (absent binds as NULL), or ArgTyped values that
// force a wire type:
//
//	s.Query(ctx, "SELECT * FROM events WHERE day = ?0",
//		ggc.ArgTyped(when, ggc.WireDate))
//
// Custom conversions are installed as a whole set and take effect atomically:
//
//	pool.SetCustomConversions(rules)
//
// # Configuration
//
// The library supports both programmatic configuration and environment
// variables with the prefix YGGGO_CASSANDRA_* (e.g. YGGGO_CASSANDRA_HOSTS).
package ygggo_cassandra

// Version returns the current library version.
func Version() string { return "0.1.0" }
