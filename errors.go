package ygggo_cassandra

import (
	"context"
	"errors"

	"github.com/gocql/gocql"
)

// ErrorClass groups errors by how callers should react to them.
type ErrorClass int

const (
	ErrClassUnknown ErrorClass = iota
	ErrClassRetryable
	ErrClassInvalid
	ErrClassConfig
	ErrClassClosed
)

// Sentinel errors for the binding and pooling layers.
var (
	// ErrArityMismatch: template placeholder count disagrees with argument count.
	ErrArityMismatch = errors.New("ygggo_cassandra: placeholder/argument arity mismatch")
	// ErrUnsupportedConversion: no conversion rule for the argument type.
	ErrUnsupportedConversion = errors.New("ygggo_cassandra: unsupported type conversion")
	// ErrInvalidPoolProfile: coreConnections > maxConnections for a distance class.
	ErrInvalidPoolProfile = errors.New("ygggo_cassandra: invalid pooling profile")
	// ErrPoolTimeout: session lease not granted within the configured pool timeout.
	ErrPoolTimeout = errors.New("ygggo_cassandra: pool acquire timeout")
	// ErrPoolClosed: pool used after Close.
	ErrPoolClosed = errors.New("ygggo_cassandra: pool is closed")
)

// QueryRejectedError wraps a store-side rejection of a bound value against an
// indexed column type. It indicates a type/schema mismatch, never a transient
// condition, so it is surfaced verbatim and must not be retried.
type QueryRejectedError struct {
	Statement string
	Err       error
}

func (e *QueryRejectedError) Error() string {
	return "ygggo_cassandra: query rejected by store: " + e.Err.Error()
}

func (e *QueryRejectedError) Unwrap() error { return e.Err }

// wrapStoreError maps a driver error into the local taxonomy. Invalid-request
// responses become QueryRejectedError; everything else passes through as-is.
func wrapStoreError(stmt string, err error) error {
	if err == nil {
		return nil
	}
	var reqErr gocql.RequestError
	if errors.As(err, &reqErr) && reqErr.Code() == gocql.ErrCodeInvalid {
		return &QueryRejectedError{Statement: stmt, Err: err}
	}
	return err
}

// Classify maps an error to its ErrorClass for retry decisions.
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrClassUnknown
	}
	var rejected *QueryRejectedError
	switch {
	case errors.As(err, &rejected),
		errors.Is(err, ErrArityMismatch),
		errors.Is(err, ErrUnsupportedConversion):
		return ErrClassInvalid
	case errors.Is(err, ErrInvalidPoolProfile):
		return ErrClassConfig
	case errors.Is(err, ErrPoolClosed):
		return ErrClassClosed
	case errors.Is(err, ErrPoolTimeout),
		errors.Is(err, gocql.ErrTimeoutNoResponse),
		errors.Is(err, gocql.ErrNoConnections),
		errors.Is(err, context.DeadlineExceeded):
		return ErrClassRetryable
	}
	var reqErr gocql.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.Code() {
		case gocql.ErrCodeOverloaded, gocql.ErrCodeWriteTimeout, gocql.ErrCodeReadTimeout, gocql.ErrCodeUnavailable:
			return ErrClassRetryable
		case gocql.ErrCodeInvalid, gocql.ErrCodeSyntax:
			return ErrClassInvalid
		}
	}
	return ErrClassUnknown
}
