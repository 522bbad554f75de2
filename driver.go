package ygggo_cassandra

import (
	"context"

	"github.com/gocql/gocql"
)

// cqlSession is the slice of the driver session the pool needs. The narrow
// surface keeps the execution path testable without a live cluster.
type cqlSession interface {
	query(stmt string, values ...any) cqlQuery
	executeBatch(ctx context.Context, entries []batchEntry) error
	closed() bool
	close()
}

type cqlQuery interface {
	withContext(ctx context.Context) cqlQuery
	withTimestamp(micros int64) cqlQuery
	speculative(pol gocql.SpeculativeExecutionPolicy) cqlQuery
	exec() error
	iter() cqlIter
}

type cqlIter interface {
	mapScan(m map[string]any) bool
	close() error
}

type batchEntry struct {
	stmt   string
	values []any
}

// sessionFactory turns a built cluster config into a live session. Tests
// swap it for the in-memory mock.
type sessionFactory func(cluster *gocql.ClusterConfig) (cqlSession, error)

func gocqlSessionFactory(cluster *gocql.ClusterConfig) (cqlSession, error) {
	s, err := cluster.CreateSession()
	if err != nil {
		return nil, err
	}
	return &gocqlSession{s: s}, nil
}

type gocqlSession struct {
	s *gocql.Session
}

func (g *gocqlSession) query(stmt string, values ...any) cqlQuery {
	return gocqlQuery{q: g.s.Query(stmt, values...)}
}

func (g *gocqlSession) executeBatch(ctx context.Context, entries []batchEntry) error {
	b := g.s.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	for _, e := range entries {
		b.Query(e.stmt, e.values...)
	}
	return g.s.ExecuteBatch(b)
}

func (g *gocqlSession) closed() bool { return g.s.Closed() }

func (g *gocqlSession) close() { g.s.Close() }

type gocqlQuery struct {
	q *gocql.Query
}

func (g gocqlQuery) withContext(ctx context.Context) cqlQuery {
	return gocqlQuery{q: g.q.WithContext(ctx)}
}

func (g gocqlQuery) withTimestamp(micros int64) cqlQuery {
	return gocqlQuery{q: g.q.WithTimestamp(micros)}
}

func (g gocqlQuery) speculative(pol gocql.SpeculativeExecutionPolicy) cqlQuery {
	// Speculative execution only engages for idempotent queries.
	return gocqlQuery{q: g.q.Idempotent(true).SetSpeculativeExecutionPolicy(pol)}
}

func (g gocqlQuery) exec() error { return g.q.Exec() }

func (g gocqlQuery) iter() cqlIter { return gocqlIter{it: g.q.Iter()} }

type gocqlIter struct {
	it *gocql.Iter
}

func (g gocqlIter) mapScan(m map[string]any) bool { return g.it.MapScan(m) }

func (g gocqlIter) close() error { return g.it.Close() }
