package services

import (
	"errors"
	"sort"
	"strings"
)

// NotFoundError signals an id (optionally scoped by a parent) with no matching row.
// Resource is the user-facing kind, e.g. "Team".
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found."
}

// ValidationError carries per-field messages for malformed or missing input.
type ValidationError struct {
	Message string
	Fields  map[string][]string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// Add appends a message for field and returns the receiver for chaining.
func (e *ValidationError) Add(field, message string) *ValidationError {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
	return e
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

var (
	ErrTeamNotFound   = &NotFoundError{Resource: "Team"}
	ErrPlayerNotFound = &NotFoundError{Resource: "Player"}

	ErrValidationFailed = errors.New("validation failed")
	ErrConflict         = errors.New("the record conflicts with an existing one")

	ErrUnauthenticated    = errors.New("Unauthenticated.")
	ErrForbidden          = errors.New("Access denied.")
	ErrInvalidCredentials = errors.New("The provided credentials are incorrect.")
	ErrUserEmailTaken     = errors.New("The email has already been taken.")
)
