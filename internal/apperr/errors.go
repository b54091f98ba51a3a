// Package apperr holds the error kinds shared by the workflow, checkout and CRUD packages.
// Business outcomes are sentinels checked with errors.Is; faults are plain wrapped errors.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidState      = errors.New("invalid state")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("conflict")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")

	ErrGatewayTimeout = errors.New("payment gateway timeout")
	ErrGatewayNetwork = errors.New("payment gateway network error")
	ErrGatewayToken   = errors.New("payment gateway token error")

	// ErrStore marks persistence failures that have no business meaning.
	ErrStore = errors.New("store error")
)

// NotFound wraps ErrNotFound with the missing resource.
func NotFound(resource string, id any) error {
	return fmt.Errorf("%s %v: %w", resource, id, ErrNotFound)
}

// InvalidState wraps ErrInvalidState with the current status.
func InvalidState(action string, current any) error {
	return fmt.Errorf("cannot %s: current status is %v: %w", action, current, ErrInvalidState)
}

// Store wraps a driver error as ErrStore, keeping the original text for logs.
func Store(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
}

// ValidationError is the result of the single validation stage run before a mutation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// Invalid builds a single-field ValidationError.
func Invalid(field, msg string) error {
	return &ValidationError{Fields: map[string]string{field: msg}}
}
