package store

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrNotConfigured is returned when the client has no URL or key.
var ErrNotConfigured = errors.New("store: url and key must be configured")

// Error is a non-2xx response from the store.
type Error struct {
	// StatusCode is the HTTP status code.
	StatusCode int `json:"-"`

	// Message is the store-reported message, or the raw body.
	Message string `json:"message"`

	// Code is the Postgres or PostgREST error code (e.g. "22P02").
	Code string `json:"code"`

	Details string `json:"details"`
	Hint    string `json:"hint"`

	// Op names the client operation that failed.
	Op string `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("store: %s: %s (status=%d, code=%s)", e.Op, e.Message, e.StatusCode, e.Code)
}

// IsNotFound returns true if the table or row does not exist.
func (e *Error) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsAuth returns true if the key was rejected.
func (e *Error) IsAuth() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// SchemaViolationError is returned when a write used a value that the
// column's enum does not list. The enum has to be extended in the database
// before the write can succeed.
type SchemaViolationError struct {
	// Enum is the Postgres enum type name.
	Enum string

	// Value is the rejected value.
	Value string

	// Hint is the statement that would add the value.
	Hint string

	err *Error
}

// Error implements the error interface.
func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("store: value %q is not allowed by enum %s; extend the schema: %s", e.Value, e.Enum, e.Hint)
}

// Unwrap returns the underlying store error.
func (e *SchemaViolationError) Unwrap() error {
	if e.err == nil {
		return nil
	}
	return e.err
}

var enumViolation = regexp.MustCompile(`invalid input value for enum ([^:\s]+): "([^"]*)"`)

// classify upgrades an enum violation to *SchemaViolationError.
func classify(e *Error) error {
	m := enumViolation.FindStringSubmatch(e.Message)
	if m == nil {
		return e
	}
	return &SchemaViolationError{
		Enum:  m[1],
		Value: m[2],
		Hint:  fmt.Sprintf("ALTER TYPE %s ADD VALUE '%s';", m[1], m[2]),
		err:   e,
	}
}

// AsError extracts *Error from an error.
//
// Example:
//
//	if e, ok := store.AsError(err); ok && e.IsAuth() {
//	    // check MEDIAFORGE_STORE_KEY
//	}
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// AsSchemaViolation extracts *SchemaViolationError from an error.
func AsSchemaViolation(err error) (*SchemaViolationError, bool) {
	var e *SchemaViolationError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
