package apperr

import (
	"fmt"
	"strings"
)

// ValidationError is a generic bad-input error (job definitions, request bodies).
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func NewValidation(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func NewValidationWrap(msg string, err error) *ValidationError {
	return &ValidationError{Message: msg, Err: err}
}

// UnknownFieldError reports a record key that the schema does not declare (strict mode).
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %q", e.Field)
}

// MissingFieldError reports a required field absent from a record.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// TypeMismatchError reports a value that cannot be coerced to the declared type.
type TypeMismatchError struct {
	Field    string
	Expected string
	Value    any
	Err      error
}

func (e *TypeMismatchError) Error() string {
	msg := fmt.Sprintf("field %q: cannot use %v (%T) as %s", e.Field, e.Value, e.Value, e.Expected)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TypeMismatchError) Unwrap() error {
	return e.Err
}

// RecordError ties a validation failure to the position of the record in the batch.
type RecordError struct {
	Index int
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// ValidationFailedError aggregates every invalid record of a run.
type ValidationFailedError struct {
	Errors []error
}

func (e *ValidationFailedError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		parts = append(parts, strings.ReplaceAll(err.Error(), "\n", "; "))
	}
	return fmt.Sprintf("validation failed for %d record(s): %s", len(e.Errors), strings.Join(parts, " | "))
}

func (e *ValidationFailedError) Unwrap() []error {
	return e.Errors
}

// SourceFailedError wraps a failure to fetch records from the source.
type SourceFailedError struct {
	Cause error
}

func (e *SourceFailedError) Error() string {
	return "source failed: " + e.Cause.Error()
}

func (e *SourceFailedError) Unwrap() error {
	return e.Cause
}
