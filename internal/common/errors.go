// Package common defines shared constants and sentinel errors used across
// the repository, service and transport layers. Callers should use errors.Is
// and errors.As to match these values.
package common

import (
	"errors"
	"sort"
	"strings"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal             = errors.New("internal error")
	ErrorUnauthorized         = errors.New("unauthorized")
	ErrorAuthenticationFailed = errors.New("incorrect password")
	ErrorPasswordMismatch     = errors.New("passwords do not match")

	// Auth errors (missing, malformed or revoked token).
	ErrInvalidToken = errors.New("invalid token")
)

// ValidationError carries per-field validation messages. It is returned by
// the service layer and rendered by the transport as a field -> messages map.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns a ValidationError holding a single message for field.
func NewValidationError(field, msg string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}

// Add appends msg to the messages of field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Empty reports whether no field has messages.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return "validation error: " + strings.Join(parts, ", ")
}

// ConflictError reports that a unique field already holds the given value.
// It matches ErrorAlreadyExists under errors.Is.
type ConflictError struct {
	Field string
	Err   error
}

func (e *ConflictError) Error() string {
	return e.Field + " already exists"
}

func (e *ConflictError) Is(target error) bool { return target == ErrorAlreadyExists }

func (e *ConflictError) Unwrap() error { return e.Err }
