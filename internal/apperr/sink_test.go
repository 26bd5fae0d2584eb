package apperr_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/DjordjeVuckovic/table-ingest/internal/apperr"
)

func TestRowRejectedError_Indices(t *testing.T) {
	err := &apperr.RowRejectedError{
		Table:    "raw.events",
		Accepted: 3,
		Rejected: []apperr.RowRejection{{Index: 1, Reason: "bad"}, {Index: 4, Reason: "worse"}},
	}

	idx := err.Indices()
	if len(idx) != 2 || idx[0] != 1 || idx[1] != 4 {
		t.Errorf("expected [1 4], got %v", idx)
	}
	if err.Error() != "2 row(s) rejected by raw.events (accepted 3), first: row 1: bad" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestSchemaMismatchError_FieldNames(t *testing.T) {
	err := &apperr.SchemaMismatchError{
		Table: "raw.events",
		Fields: []apperr.FieldMismatch{
			{Field: "id", Expected: "INTEGER", Actual: "STRING"},
			{Field: "message", Expected: "STRING"},
		},
	}

	names := err.FieldNames()
	if len(names) != 2 || names[0] != "id" || names[1] != "message" {
		t.Errorf("expected [id message], got %v", names)
	}
	want := "schema mismatch on raw.events: id: STRING (want INTEGER), message: missing (want STRING)"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestTimeoutError_UnwrapsDeadline(t *testing.T) {
	err := fmt.Errorf("commit: %w", &apperr.SinkFailedError{
		Cause: &apperr.TimeoutError{Step: "exists", Err: context.DeadlineExceeded},
	})

	var te *apperr.TimeoutError
	if !errors.As(err, &te) {
		t.Fatal("errors.As should find TimeoutError through SinkFailedError")
	}
	if te.Step != "exists" {
		t.Errorf("expected step exists, got %q", te.Step)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("expected chain to contain context.DeadlineExceeded")
	}
}

func TestValidationFailedError_UnwrapsAllRecords(t *testing.T) {
	err := &apperr.ValidationFailedError{Errors: []error{
		&apperr.RecordError{Index: 0, Err: &apperr.MissingFieldError{Field: "id"}},
		&apperr.RecordError{Index: 2, Err: &apperr.TypeMismatchError{Field: "id", Expected: "INTEGER", Value: "x"}},
	}}

	var tm *apperr.TypeMismatchError
	if !errors.As(err, &tm) {
		t.Fatal("errors.As should reach TypeMismatchError inside the aggregate")
	}
	if tm.Field != "id" || tm.Expected != "INTEGER" {
		t.Errorf("unexpected mismatch %+v", tm)
	}
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &apperr.ValidationFailedError{}, http.StatusBadRequest},
		{"not found", &apperr.SinkFailedError{Cause: &apperr.TableNotFoundError{Table: "a.b"}}, http.StatusNotFound},
		{"mismatch", &apperr.SchemaMismatchError{}, http.StatusConflict},
		{"not empty", &apperr.TableNotEmptyError{}, http.StatusConflict},
		{"rejected", &apperr.RowRejectedError{Rejected: []apperr.RowRejection{{}}}, http.StatusUnprocessableEntity},
		{"timeout", &apperr.TimeoutError{Step: "write"}, http.StatusGatewayTimeout},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got, _ := apperr.StatusOf(tc.err); got != tc.want {
				t.Errorf("expected %d, got %d", tc.want, got)
			}
		})
	}
}
