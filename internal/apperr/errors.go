// Package apperr defines sentinel errors shared across the application.
package apperr

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrConflict          = errors.New("conflict")
	ErrInvalidInput      = errors.New("invalid input")
	ErrDestinationExists = errors.New("destination already exists")

	// ErrPartialApply means link text was rewritten but the final rename of
	// the note file failed, leaving filename and references inconsistent.
	ErrPartialApply = errors.New("partial apply")
)
