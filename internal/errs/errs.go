// Package errs defines the error taxonomy for the attendance pipeline.
// Each kind carries its own retry policy: input, conflict, and validation
// errors require the caller to change the request; extraction errors are
// recovered locally by skipping the affected image; store errors propagate.
package errs

import (
	"errors"
	"fmt"
)

// ErrNoFaceDetected is returned when an enrollment image contains no face.
var ErrNoFaceDetected = errors.New("no face detected")

// ErrMultipleFaces is returned in strict enrollment mode when an image
// contains more than one face.
var ErrMultipleFaces = errors.New("multiple faces detected")

// ErrNotReady is returned when a core operation is invoked before
// process-wide initialization has completed.
var ErrNotReady = errors.New("service not initialized")

// InputError marks a malformed request. Never retried automatically.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }

func Input(format string, args ...interface{}) error {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

// ConflictError marks a duplicate identity key. Not retryable with the
// same input.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

func Conflict(format string, args ...interface{}) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

// ValidationError marks a failed enrollment rule. ImageIndex is the
// zero-based index of the offending image, or -1 when the rule spans all
// images.
type ValidationError struct {
	Msg        string
	ImageIndex int
	Err        error
}

func (e *ValidationError) Error() string {
	if e.ImageIndex >= 0 {
		return fmt.Sprintf("%s (image %d)", e.Msg, e.ImageIndex+1)
	}
	return e.Msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

func Validation(msg string, imageIndex int, cause error) error {
	return &ValidationError{Msg: msg, ImageIndex: imageIndex, Err: cause}
}

// ExtractionError marks a single probe image that failed to yield usable
// embeddings during reconciliation. Recovered by skipping the image.
type ExtractionError struct {
	Ref string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %s: %v", e.Ref, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func Extraction(ref string, cause error) error {
	return &ExtractionError{Ref: ref, Err: cause}
}

// StoreError marks a persistence failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func Store(op string, cause error) error {
	return &StoreError{Op: op, Err: cause}
}
