package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared across the pipeline packages.
var (
	// ErrNotFound marks a missing input file, snapshot, or directory.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedMode marks a persistence mode that is deliberately
	// unimplemented. Incremental ingestion must fail loudly rather than
	// silently approximate append semantics.
	ErrUnsupportedMode = errors.New("mode not implemented")
)

// ValidationError carries every violation found in a raw batch. The pipeline
// aborts before any write when validation fails, so callers always see the
// full list at once.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Violations, "; "))
}

// PersistenceError wraps a failed snapshot or mirror write with the stage
// that produced it.
type PersistenceError struct {
	Stage string // "snapshot" or "mirror"
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Stage, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
