package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAddressNotFound is returned when the geocoder has no usable result.
	ErrAddressNotFound = errors.New("invalid address: no results found")

	// ErrRemodelNotFound is returned when a stored record does not exist.
	ErrRemodelNotFound = errors.New("remodel not found")
)

// ValidationError reports a structurally invalid request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Invalid is shorthand for building a ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// UpstreamError wraps a failed call to a third-party service.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// PersistenceError wraps a document store failure.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist remodel: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
