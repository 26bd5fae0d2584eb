package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTableExists is returned by backends when a create lost a race with another writer.
var ErrTableExists = errors.New("table already exists")

type TableNotFoundError struct {
	Table string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("table %s not found", e.Table)
}

// FieldMismatch describes one incompatible field. An empty Actual means the field is missing remotely.
type FieldMismatch struct {
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Actual   string `json:"actual,omitempty"`
}

func (m FieldMismatch) String() string {
	if m.Actual == "" {
		return fmt.Sprintf("%s: missing (want %s)", m.Field, m.Expected)
	}
	return fmt.Sprintf("%s: %s (want %s)", m.Field, m.Actual, m.Expected)
}

type SchemaMismatchError struct {
	Table  string
	Fields []FieldMismatch
}

func (e *SchemaMismatchError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return fmt.Sprintf("schema mismatch on %s: %s", e.Table, strings.Join(parts, ", "))
}

// FieldNames returns the names of the mismatched fields.
func (e *SchemaMismatchError) FieldNames() []string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	return names
}

type TableNotEmptyError struct {
	Table string
	Rows  int64
}

func (e *TableNotEmptyError) Error() string {
	return fmt.Sprintf("table %s is not empty (%d rows)", e.Table, e.Rows)
}

// RowRejection is a row the destination refused. Index is the position in the committed batch.
type RowRejection struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

type RowRejectedError struct {
	Table    string
	Rejected []RowRejection
	Accepted int
}

func (e *RowRejectedError) Error() string {
	return fmt.Sprintf("%d row(s) rejected by %s (accepted %d), first: row %d: %s",
		len(e.Rejected), e.Table, e.Accepted, e.Rejected[0].Index, e.Rejected[0].Reason)
}

// Indices returns the rejected row positions.
func (e *RowRejectedError) Indices() []int {
	idx := make([]int, len(e.Rejected))
	for i, r := range e.Rejected {
		idx[i] = r.Index
	}
	return idx
}

// TimeoutError reports a sink step that did not finish within its deadline.
type TimeoutError struct {
	Step string
	Err  error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("sink step %q timed out: %v", e.Step, e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// SinkFailedError wraps any commit failure at the runner level.
type SinkFailedError struct {
	Cause error
}

func (e *SinkFailedError) Error() string {
	return "sink failed: " + e.Cause.Error()
}

func (e *SinkFailedError) Unwrap() error {
	return e.Cause
}
