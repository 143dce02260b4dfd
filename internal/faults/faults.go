// Package faults defines the error kinds shared across the fulfillment
// engine's components. Handlers map them onto HTTP statuses with errors.Is.
package faults

import (
	"errors"
	"fmt"
)

// ErrNotFound marks references to unknown products, vendors, batches, or
// requests.
var ErrNotFound = errors.New("not found")

// ErrStateConflict marks operations that are valid in shape but illegal in
// the subject's current lifecycle state: uploads against a fulfilled
// request, re-approval of an approved batch, cancellation after fulfillment.
var ErrStateConflict = errors.New("state conflict")

// ErrInvalidInput marks malformed operation arguments that are not
// row-level credential validation issues (those carry their own row errors).
var ErrInvalidInput = errors.New("invalid input")

// NotFound wraps ErrNotFound with the missing resource's name.
func NotFound(resource string) error {
	return fmt.Errorf("%s: %w", resource, ErrNotFound)
}

// Conflict wraps ErrStateConflict with a reason.
func Conflict(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrStateConflict)...)
}

// Invalid wraps ErrInvalidInput with a reason.
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidInput)...)
}
