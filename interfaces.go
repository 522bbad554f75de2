package ygggo_cassandra

import "context"

// DatabasePool defines the surface every pool implementation satisfies, so
// mock and real pools stay interchangeable in callers and tests.
type DatabasePool interface {
	// Session leasing
	AcquireSession(ctx context.Context) (*Session, error)
	AcquireSessionDistance(ctx context.Context, d HostDistance) (*Session, error)
	WithSession(ctx context.Context, fn func(*Session) error) error

	// Binding configuration
	Registry() *Registry
	SetCustomConversions(rules []ConversionRule)

	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error
}

// DatabaseSession is the leased-session surface.
type DatabaseSession interface {
	Exec(ctx context.Context, stmt string, args ...any) error
	InsertStruct(ctx context.Context, table string, v any) error
	Query(ctx context.Context, stmt string, args ...any) (*Rows, error)
	QueryStream(ctx context.Context, stmt string, cb func(map[string]any) error, args ...any) error
	ExecBatch(ctx context.Context, b *Batch) error
	Close() error
}

// Compile-time interface checks.
var (
	_ DatabasePool    = (*Pool)(nil)
	_ DatabaseSession = (*Session)(nil)
)
