package ygggo_cassandra

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gocql/gocql"
)

func TestRetryWithPolicy_RetryableRecovers(t *testing.T) {
	calls := 0
	err := retryWithPolicy(context.Background(), RetryPolicy{MaxAttempts: 5, BaseBackoff: time.Millisecond}, func() error {
		calls++
		if calls < 3 {
			return gocql.ErrTimeoutNoResponse
		}
		return nil
	}, Classify)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestRetryWithPolicy_InvalidNeverRetried(t *testing.T) {
	rejected := &QueryRejectedError{Statement: "q", Err: errors.New("bad type")}
	calls := 0
	err := retryWithPolicy(context.Background(), RetryPolicy{MaxAttempts: 5, BaseBackoff: time.Millisecond}, func() error {
		calls++
		return rejected
	}, Classify)
	if !errors.As(err, new(*QueryRejectedError)) {
		t.Fatalf("rejection lost: %v", err)
	}
	if calls != 1 {
		t.Fatalf("rejected query was retried: %d calls", calls)
	}
}

func TestRetryWithPolicy_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := retryWithPolicy(context.Background(), RetryPolicy{MaxAttempts: 3, BaseBackoff: time.Millisecond}, func() error {
		calls++
		return gocql.ErrNoConnections
	}, Classify)
	if !errors.Is(err, gocql.ErrNoConnections) {
		t.Fatalf("last error not surfaced: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestRetryWithPolicy_ContextCancelStopsBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	err := retryWithPolicy(ctx, RetryPolicy{MaxAttempts: 100, BaseBackoff: time.Second, MaxBackoff: time.Second}, func() error {
		calls++
		return gocql.ErrTimeoutNoResponse
	}, Classify)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 before cancel", calls)
	}
}

func TestPool_ExecRetry(t *testing.T) {
	p, exp := mockPool(t, Config{Retry: RetryPolicy{MaxAttempts: 3, BaseBackoff: time.Millisecond}})
	exp.ExpectExec(`INSERT INTO t`).WillReturnError(MockRequestError{ErrCode: gocql.ErrCodeOverloaded})
	exp.ExpectExec(`INSERT INTO t`)

	if err := p.ExecRetry(context.Background(), "INSERT INTO t (a) VALUES (?0)", "v"); err != nil {
		t.Fatalf("ExecRetry: %v", err)
	}
	if err := exp.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
