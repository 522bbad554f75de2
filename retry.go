package ygggo_cassandra

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy controls retry strategy for retryable failures.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	Jitter      bool
	MaxElapsed  time.Duration
}

// retryWithPolicy retries op according to policy. Only ErrClassRetryable
// failures repeat; rejected queries and binding errors surface immediately.
func retryWithPolicy(ctx context.Context, pol RetryPolicy, op func() error, classify func(error) ErrorClass) error {
	if pol.MaxAttempts <= 0 {
		pol.MaxAttempts = 1
	}
	if pol.BaseBackoff <= 0 {
		pol.BaseBackoff = 10 * time.Millisecond
	}
	if pol.MaxBackoff <= 0 {
		pol.MaxBackoff = pol.BaseBackoff
	}
	start := time.Now()
	var lastErr error
	for attempt := 1; attempt <= pol.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := op()
		if err == nil {
			return nil
		}
		if classify(err) != ErrClassRetryable {
			return err
		}
		lastErr = err
		if attempt == pol.MaxAttempts {
			break
		}
		if pol.MaxElapsed > 0 && time.Since(start) >= pol.MaxElapsed {
			break
		}
		d := pol.BaseBackoff * time.Duration(attempt)
		if d > pol.MaxBackoff {
			d = pol.MaxBackoff
		}
		if pol.Jitter {
			d = time.Duration(rand.Int63n(int64(d)))
		}
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return lastErr
}

// ExecRetry runs an Exec under the pool's retry policy, leasing a fresh
// session per attempt so a timed-out lease never pins a slot.
func (p *Pool) ExecRetry(ctx context.Context, stmt string, args ...any) error {
	return retryWithPolicy(ctx, p.cfg.Retry, func() error {
		return p.WithSession(ctx, func(s *Session) error {
			return s.Exec(ctx, stmt, args...)
		})
	}, Classify)
}
