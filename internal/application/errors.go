package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized is returned when the principal may not perform the
	// requested operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when a referenced resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrTimeConflict is returned when a reservation write loses the
	// serialized check-and-insert in the event store.
	ErrTimeConflict = errors.New("application: time conflict")
)

// ValidationError aggregates per-field input problems. The zero value is
// usable; HasErrors reports whether any field was rejected.
type ValidationError struct {
	FieldErrors map[string]string
}

func (e *ValidationError) add(field, message string) {
	if e.FieldErrors == nil {
		e.FieldErrors = make(map[string]string)
	}
	if _, exists := e.FieldErrors[field]; !exists {
		e.FieldErrors[field] = message
	}
}

// HasErrors reports whether any field failed validation.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.FieldErrors) > 0
}

// Error renders the field problems in a stable order.
func (e *ValidationError) Error() string {
	if !e.HasErrors() {
		return "validation failed"
	}
	fields := make([]string, 0, len(e.FieldErrors))
	for field := range e.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.FieldErrors[field]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Principal identifies the authenticated caller.
type Principal struct {
	UserID  string
	IsAdmin bool
}
