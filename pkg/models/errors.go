package models

import (
	"errors"
	"fmt"
)

// Batch-level error kinds. A run that fails with one of these stops; callers
// tell them apart with errors.Is.
var (
	// ErrNotFound means there was nothing to read: no input directory or no
	// XML files in it.
	ErrNotFound = errors.New("not found")
	// ErrEmptyResult means a stage produced nothing to hand to the next one.
	ErrEmptyResult = errors.New("empty result")
	// ErrDatabase wraps any failure reported by a sink.
	ErrDatabase = errors.New("database error")
	// ErrInvalidWindow means the window width cannot produce any bucket.
	// It also matches ErrEmptyResult.
	ErrInvalidWindow = fmt.Errorf("invalid window width: %w", ErrEmptyResult)
)
