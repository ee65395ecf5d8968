package db

import (
	"fmt"
	"time"
)

// CatalogError wraps any failure during schema introspection.
type CatalogError struct {
	Err error
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("schema introspection failed: %v", e.Err)
}

func (e *CatalogError) Unwrap() error { return e.Err }

// ExecutionError wraps a database error raised while running a generated
// query. The driver's message is passed through untouched.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string { return e.Err.Error() }

func (e *ExecutionError) Unwrap() error { return e.Err }

// TimeoutError is returned when a query exceeds its wall-clock budget.
// Unlike ExecutionError, the in-flight query has been cancelled by the time
// the caller sees this.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("query timed out after %s", e.Timeout)
}
