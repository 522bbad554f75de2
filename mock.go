package ygggo_cassandra

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"sync"

	"github.com/gocql/gocql"
)

// MockExpectations scripts the statements a mock pool should see, in order.
// It mirrors the shape of sqlmock used elsewhere in the ygggo family without
// depending on a wire protocol the CQL driver does not speak.
type MockExpectations struct {
	mu           sync.Mutex
	expectations []*mockExpectation
	next         int
}

type mockExpectation struct {
	kind    string // "exec", "query", "batch"
	pattern *regexp.Regexp
	args    []any
	hasArgs bool
	rows    []map[string]any
	err     error
	matched bool
}

// ExecExpectation configures one expected Exec.
type ExecExpectation struct{ e *mockExpectation }

// WithArgs requires the bound wire values to equal args.
func (x *ExecExpectation) WithArgs(args ...any) *ExecExpectation {
	x.e.args = args
	x.e.hasArgs = true
	return x
}

// WillReturnError scripts the store's response.
func (x *ExecExpectation) WillReturnError(err error) *ExecExpectation {
	x.e.err = err
	return x
}

// QueryExpectation configures one expected Query.
type QueryExpectation struct{ e *mockExpectation }

func (x *QueryExpectation) WithArgs(args ...any) *QueryExpectation {
	x.e.args = args
	x.e.hasArgs = true
	return x
}

// WillReturnRows scripts the result set, one map per row.
func (x *QueryExpectation) WillReturnRows(rows ...map[string]any) *QueryExpectation {
	x.e.rows = rows
	return x
}

func (x *QueryExpectation) WillReturnError(err error) *QueryExpectation {
	x.e.err = err
	return x
}

// ExpectExec queues an exec expectation; pattern is a regular expression
// matched against the driver-form statement.
func (m *MockExpectations) ExpectExec(pattern string) *ExecExpectation {
	e := &mockExpectation{kind: "exec", pattern: regexp.MustCompile(pattern)}
	m.mu.Lock()
	m.expectations = append(m.expectations, e)
	m.mu.Unlock()
	return &ExecExpectation{e: e}
}

// ExpectQuery queues a query expectation.
func (m *MockExpectations) ExpectQuery(pattern string) *QueryExpectation {
	e := &mockExpectation{kind: "query", pattern: regexp.MustCompile(pattern)}
	m.mu.Lock()
	m.expectations = append(m.expectations, e)
	m.mu.Unlock()
	return &QueryExpectation{e: e}
}

// ExpectBatch queues a batch expectation matching the first statement.
func (m *MockExpectations) ExpectBatch(pattern string) *ExecExpectation {
	e := &mockExpectation{kind: "batch", pattern: regexp.MustCompile(pattern)}
	m.mu.Lock()
	m.expectations = append(m.expectations, e)
	m.mu.Unlock()
	return &ExecExpectation{e: e}
}

// ExpectationsWereMet reports the first queued expectation that never ran.
func (m *MockExpectations) ExpectationsWereMet() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.expectations {
		if !e.matched {
			return fmt.Errorf("expectation %d (%s %s) was not met", i, e.kind, e.pattern)
		}
	}
	return nil
}

func (m *MockExpectations) take(kind, stmt string, values []any) (*mockExpectation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.next >= len(m.expectations) {
		return nil, fmt.Errorf("unexpected %s %q: no expectation queued", kind, stmt)
	}
	e := m.expectations[m.next]
	if e.kind != kind {
		return nil, fmt.Errorf("unexpected %s %q: next expectation is %s %s", kind, stmt, e.kind, e.pattern)
	}
	if !e.pattern.MatchString(stmt) {
		return nil, fmt.Errorf("%s %q does not match expectation %s", kind, stmt, e.pattern)
	}
	if e.hasArgs && !reflect.DeepEqual(e.args, values) {
		return nil, fmt.Errorf("%s %q args %v do not match expected %v", kind, stmt, values, e.args)
	}
	e.matched = true
	m.next++
	return e, nil
}

// MockRequestError implements gocql.RequestError so tests can script
// store-side rejections (e.g. an invalid bind against an indexed column).
type MockRequestError struct {
	ErrCode int
	Msg     string
}

func (e MockRequestError) Code() int       { return e.ErrCode }
func (e MockRequestError) Message() string { return e.Msg }
func (e MockRequestError) Error() string {
	return fmt.Sprintf("request error %#x: %s", e.ErrCode, e.Msg)
}

// mockSession implements cqlSession against the scripted expectations.
type mockSession struct {
	exp      *MockExpectations
	isClosed bool
	mu       sync.Mutex
}

func (s *mockSession) query(stmt string, values ...any) cqlQuery {
	return &mockQuery{sess: s, stmt: stmt, values: values}
}

func (s *mockSession) executeBatch(_ context.Context, entries []batchEntry) error {
	if len(entries) == 0 {
		return nil
	}
	e, err := s.exp.take("batch", entries[0].stmt, entries[0].values)
	if err != nil {
		return err
	}
	return e.err
}

func (s *mockSession) closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isClosed
}

func (s *mockSession) close() {
	s.mu.Lock()
	s.isClosed = true
	s.mu.Unlock()
}

type mockQuery struct {
	sess   *mockSession
	stmt   string
	values []any
}

func (q *mockQuery) withContext(_ context.Context) cqlQuery { return q }
func (q *mockQuery) withTimestamp(_ int64) cqlQuery         { return q }
func (q *mockQuery) speculative(_ gocql.SpeculativeExecutionPolicy) cqlQuery {
	return q
}

func (q *mockQuery) exec() error {
	e, err := q.sess.exp.take("exec", q.stmt, q.values)
	if err != nil {
		return err
	}
	return e.err
}

func (q *mockQuery) iter() cqlIter {
	e, err := q.sess.exp.take("query", q.stmt, q.values)
	if err != nil {
		return &mockIter{err: err}
	}
	return &mockIter{rows: e.rows, err: e.err}
}

type mockIter struct {
	rows []map[string]any
	pos  int
	err  error
}

func (it *mockIter) mapScan(m map[string]any) bool {
	if it.err != nil || it.pos >= len(it.rows) {
		return false
	}
	for k, v := range it.rows[it.pos] {
		m[k] = v
	}
	it.pos++
	return true
}

func (it *mockIter) close() error { return it.err }

// NewMockPool builds a pool whose driver session is scripted in memory. The
// full binding and pooling path runs; only the wire hop is simulated.
func NewMockPool(ctx context.Context, cfg Config) (*Pool, *MockExpectations, error) {
	exp := &MockExpectations{}
	p, err := newPool(ctx, cfg, func(_ *gocql.ClusterConfig) (cqlSession, error) {
		return &mockSession{exp: exp}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return p, exp, nil
}
