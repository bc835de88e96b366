package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrSequenceInvalid is returned when chunk or result sequence numbers
	// are not the contiguous range 0..n-1, or when a result is missing or
	// duplicated.
	ErrSequenceInvalid = errors.New("invalid chunk sequence")

	// ErrUnresolved is returned when assembly is attempted while a tracking
	// record is not yet in a terminal state.
	ErrUnresolved = errors.New("tracking record not resolved")
)

// PipelineError reports the stage at which a document could not be
// processed. Per-chunk failures never produce a PipelineError.
type PipelineError struct { //nolint:revive // pipeline.PipelineError reads better than pipeline.Error at call sites
	// Stage is the name of the step that failed.
	Stage string

	// DocumentID identifies the document.
	DocumentID string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	return fmt.Sprintf("failed to mask %s at %s: %v", e.DocumentID, e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *PipelineError) Unwrap() error {
	return e.Err
}
