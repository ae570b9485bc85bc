// Package apperr holds the sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalid       = errors.New("invalid request")
	// ErrCancelled is returned when a prompt or suggester was dismissed.
	// It aborts the whole formatting pass.
	ErrCancelled = errors.New("cancelled")
)
