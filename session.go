package ygggo_cassandra

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"
)

// Session is a leased, thread-safe handle onto the pool's connections. It
// must be closed to return the lease; Close is idempotent.
type Session struct {
	p        *Pool
	distance HostDistance
	released atomic.Bool
}

// Distance reports the distance class this lease was taken from.
func (s *Session) Distance() HostDistance { return s.distance }

// Close returns the lease to the pool. Aborted executions release their slot
// the same way, so pool state never leaks on cancellation.
func (s *Session) Close() error {
	if s == nil || s.p == nil {
		return nil
	}
	if s.released.CompareAndSwap(false, true) {
		s.p.release(s.distance)
	}
	return nil
}

func (s *Session) usable() error {
	if s == nil || s.p == nil || s.released.Load() {
		return ErrPoolClosed
	}
	if s.p.state.Load() == poolClosed {
		return ErrPoolClosed
	}
	return nil
}

// buildQuery binds args against stmt's template and prepares a driver query
// carrying context, write timestamp and the speculative execution policy.
func (s *Session) buildQuery(ctx context.Context, stmt string, args []any) (cqlQuery, error) {
	tpl, err := s.p.tpls.getOrParse(stmt)
	if err != nil {
		return nil, err
	}
	vals, err := bindValues(tpl, boundArgs(args), s.p.reg)
	if err != nil {
		s.p.onBindFailure()
		return nil, err
	}
	q := s.p.sess.query(tpl.CQL(), vals...).withContext(ctx)
	if ts := s.p.cfg.Timestamps; ts != nil {
		q = q.withTimestamp(ts.Next())
	}
	if pol := s.p.cfg.SpeculativeExecution; pol != nil {
		q = q.speculative(pol)
	}
	return q, nil
}

// Exec runs a statement that returns no rows. Arguments may be plain values
// or BoundArgument wrappers carrying a wire-type override.
func (s *Session) Exec(ctx context.Context, stmt string, args ...any) error {
	if err := s.usable(); err != nil {
		return err
	}
	start := time.Now()
	q, err := s.buildQuery(ctx, stmt, args)
	if err == nil {
		ctx, span := s.p.startSpan(ctx, "exec", stmt)
		err = wrapStoreError(stmt, q.withContext(ctx).exec())
		s.p.finishSpan(span, err)
	}
	s.p.observeQuery(ctx, "exec", stmt, args, time.Since(start), err)
	return err
}

// Query runs a statement and returns its rows. The caller owns the Rows and
// must close them.
func (s *Session) Query(ctx context.Context, stmt string, args ...any) (*Rows, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	start := time.Now()
	q, err := s.buildQuery(ctx, stmt, args)
	if err != nil {
		s.p.observeQuery(ctx, "query", stmt, args, time.Since(start), err)
		return nil, err
	}
	ctx, span := s.p.startSpan(ctx, "query", stmt)
	rows := &Rows{
		iter: q.withContext(ctx).iter(),
		reg:  s.p.reg,
		stmt: stmt,
		onClose: func(err error) {
			s.p.finishSpan(span, err)
			s.p.observeQuery(ctx, "query", stmt, args, time.Since(start), err)
		},
	}
	return rows, nil
}

// QueryStream feeds each decoded row to cb; a non-nil cb error stops the
// iteration and is returned as-is.
func (s *Session) QueryStream(ctx context.Context, stmt string, cb func(map[string]any) error, args ...any) error {
	rows, err := s.Query(ctx, stmt, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for {
		m := map[string]any{}
		if !rows.ScanMap(m) {
			break
		}
		if err := cb(m); err != nil {
			return err
		}
	}
	return rows.Close()
}

// InsertStruct writes v's columns into table with a single INSERT. Column
// names come from `cql` tags (or lowercased field names); a map[string]any
// passes through as-is. Columns are emitted in sorted order so the statement
// stays cacheable.
func (s *Session) InsertStruct(ctx context.Context, table string, v any) error {
	if err := s.usable(); err != nil {
		return err
	}
	cols, err := structToColumns(v)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return fmt.Errorf("ygggo_cassandra: InsertStruct: no columns in %T", v)
	}
	names := make([]string, 0, len(cols))
	for name := range cols {
		names = append(names, name)
	}
	sort.Strings(names)
	marks := make([]string, len(names))
	args := make([]any, len(names))
	for i, name := range names {
		marks[i] = fmt.Sprintf("?%d", i)
		args[i] = cols[name]
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(names, ", "), strings.Join(marks, ", "))
	return s.Exec(ctx, stmt, args...)
}

// Batch accumulates statements for a single logged batch.
type Batch struct {
	stmts []string
	args  [][]any
}

// NewBatch returns an empty batch.
func NewBatch() *Batch { return &Batch{} }

// Add appends a statement with its arguments.
func (b *Batch) Add(stmt string, args ...any) *Batch {
	b.stmts = append(b.stmts, stmt)
	b.args = append(b.args, args)
	return b
}

// Len returns the number of queued statements.
func (b *Batch) Len() int { return len(b.stmts) }

// ExecBatch binds every queued statement and submits the batch atomically.
func (s *Session) ExecBatch(ctx context.Context, b *Batch) error {
	if err := s.usable(); err != nil {
		return err
	}
	if b == nil || len(b.stmts) == 0 {
		return nil
	}
	start := time.Now()
	entries := make([]batchEntry, len(b.stmts))
	var err error
	for i, stmt := range b.stmts {
		var tpl QueryTemplate
		tpl, err = s.p.tpls.getOrParse(stmt)
		if err != nil {
			break
		}
		var vals []any
		vals, err = bindValues(tpl, boundArgs(b.args[i]), s.p.reg)
		if err != nil {
			s.p.onBindFailure()
			break
		}
		entries[i] = batchEntry{stmt: tpl.CQL(), values: vals}
	}
	if err == nil {
		ctx, span := s.p.startSpan(ctx, "batch", b.stmts[0])
		err = wrapStoreError(b.stmts[0], s.p.sess.executeBatch(ctx, entries))
		s.p.finishSpan(span, err)
	}
	s.p.observeQuery(ctx, "batch", b.stmts[0], nil, time.Since(start), err)
	return err
}
