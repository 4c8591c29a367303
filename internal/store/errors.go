package store

import (
	"errors"
	"fmt"
)

// ErrorKind classifies store failures.
type ErrorKind string

const (
	// KindNotSetUp is returned when the provider is used before Connect or
	// after Disconnect.
	KindNotSetUp ErrorKind = "NOT_SET_UP"
	// KindConnectionLifecycle covers opening, closing and acquiring
	// connections, and preparing the backing file.
	KindConnectionLifecycle ErrorKind = "CONNECTION_LIFECYCLE"
	// KindSchemaCreation covers migration failures.
	KindSchemaCreation ErrorKind = "SCHEMA_CREATION"
	// KindOperationFailure covers failed reads and writes.
	KindOperationFailure ErrorKind = "OPERATION_FAILURE"
)

// Error is the error type returned by the store.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// errNotSetUp is wrapped by every KindNotSetUp error.
var errNotSetUp = errors.New("connection pool is not set up")

// KindOf returns the kind of a store error, or "" if err is not one.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// IsNotSetUp reports whether err is a not-set-up error.
func IsNotSetUp(err error) bool {
	return KindOf(err) == KindNotSetUp
}

// IsConnectionLifecycle reports whether err is a connection lifecycle error.
func IsConnectionLifecycle(err error) bool {
	return KindOf(err) == KindConnectionLifecycle
}

// IsSchemaCreation reports whether err is a migration error.
func IsSchemaCreation(err error) bool {
	return KindOf(err) == KindSchemaCreation
}

// IsOperationFailure reports whether err is a failed store operation.
func IsOperationFailure(err error) bool {
	return KindOf(err) == KindOperationFailure
}
