package schema

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DjordjeVuckovic/table-ingest/internal/apperr"
	"github.com/DjordjeVuckovic/table-ingest/internal/domain"
)

func messageSchema(t *testing.T, opts ...Option) *Schema {
	t.Helper()
	s, err := Parse("id:INTEGER,message:STRING", opts...)
	require.NoError(t, err)
	return s
}

func TestValidate_ValidRecord(t *testing.T) {
	s := messageSchema(t)

	got, err := s.Validate(domain.Record{"id": 2501, "message": "Via GCS"})

	require.NoError(t, err)
	assert.Equal(t, domain.ValidatedRecord{"id": int64(2501), "message": "Via GCS"}, got)
}

func TestValidate_CoercesNumericString(t *testing.T) {
	s := messageSchema(t)

	got, err := s.Validate(domain.Record{"id": " 42 ", "message": "x"})

	require.NoError(t, err)
	assert.Equal(t, int64(42), got["id"])
}

func TestValidate_TypeMismatch(t *testing.T) {
	s := messageSchema(t)

	_, err := s.Validate(domain.Record{"id": "notanint", "message": "x"})

	var tm *apperr.TypeMismatchError
	require.True(t, errors.As(err, &tm))
	assert.Equal(t, "id", tm.Field)
	assert.Equal(t, "INTEGER", tm.Expected)
	assert.Equal(t, "notanint", tm.Value)
}

func TestValidate_StrictRejectsUnknown(t *testing.T) {
	s := messageSchema(t)

	_, err := s.Validate(domain.Record{"id": 1, "message": "x", "zeta": 1, "alpha": 2})

	var uf *apperr.UnknownFieldError
	require.True(t, errors.As(err, &uf))
	// errors.Join keeps order, unknown keys are sorted
	assert.Equal(t, "alpha", uf.Field)
	assert.Contains(t, err.Error(), `"zeta"`)
}

func TestValidate_PermissiveDropsUnknown(t *testing.T) {
	s := messageSchema(t, WithMode(Permissive))

	got, err := s.Validate(domain.Record{"id": 1, "message": "x", "extra": true})

	require.NoError(t, err)
	assert.NotContains(t, got, "extra")
	assert.Len(t, got, 2)
}

func TestValidate_MissingField(t *testing.T) {
	s := messageSchema(t)

	for name, rec := range map[string]domain.Record{
		"absent": {"id": 1},
		"nil":    {"id": 1, "message": nil},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.Validate(rec)

			var mf *apperr.MissingFieldError
			require.True(t, errors.As(err, &mf))
			assert.Equal(t, "message", mf.Field)
		})
	}
}

func TestValidate_OptionalField(t *testing.T) {
	s, err := Parse("id:INTEGER,note:STRING:NULLABLE")
	require.NoError(t, err)

	absent, err := s.Validate(domain.Record{"id": 1})
	require.NoError(t, err)
	assert.NotContains(t, absent, "note")

	explicitNil, err := s.Validate(domain.Record{"id": 1, "note": nil})
	require.NoError(t, err)
	assert.Contains(t, explicitNil, "note")
	assert.Nil(t, explicitNil["note"])
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	s := messageSchema(t)

	_, err := s.Validate(domain.Record{"id": true, "other": 1})

	var (
		uf *apperr.UnknownFieldError
		tm *apperr.TypeMismatchError
		mf *apperr.MissingFieldError
	)
	assert.True(t, errors.As(err, &uf))
	assert.True(t, errors.As(err, &tm))
	assert.True(t, errors.As(err, &mf))
}

func TestValidate_DoesNotMutateInput(t *testing.T) {
	s := messageSchema(t, WithMode(Permissive))
	rec := domain.Record{"id": "7", "message": "x", "extra": 1}

	_, err := s.Validate(rec)

	require.NoError(t, err)
	assert.Equal(t, domain.Record{"id": "7", "message": "x", "extra": 1}, rec)
}

func TestValidate_Idempotent(t *testing.T) {
	s := MustNew([]Field{
		{Name: "i", Type: Integer},
		{Name: "f", Type: Float},
		{Name: "s", Type: String},
		{Name: "b", Type: Boolean},
		{Name: "ts", Type: Timestamp},
		{Name: "opt", Type: String, Optional: true},
	})
	inputs := []domain.Record{
		{"i": "12", "f": "1.5", "s": "a", "b": "true", "ts": "2024-05-01T10:00:00+02:00"},
		{"i": json.Number("3"), "f": json.Number("2"), "s": "9", "b": false, "ts": int64(1700000000), "opt": nil},
		{"i": 3.0, "f": 7, "s": []byte("raw"), "b": "0", "ts": time.Date(2020, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))},
	}

	for _, in := range inputs {
		first, err := s.Validate(in)
		require.NoError(t, err)

		second, err := s.Validate(first.Record())
		require.NoError(t, err)

		assert.Equal(t, first, second)
	}
}

func TestValidate_Deterministic(t *testing.T) {
	s := messageSchema(t)
	rec := domain.Record{"id": "x", "b": 1, "a": 2, "c": 3}

	_, first := s.Validate(rec)
	for i := 0; i < 20; i++ {
		_, err := s.Validate(rec)
		assert.Equal(t, first.Error(), err.Error())
	}
}

func TestValidateAll_IndexesFailures(t *testing.T) {
	s := messageSchema(t)

	valid, errs := s.ValidateAll([]domain.Record{
		{"id": 1, "message": "ok"},
		{"id": "bad", "message": "x"},
		{"id": 3, "message": "ok"},
	})

	assert.Len(t, valid, 2)
	require.Len(t, errs, 1)
	var re *apperr.RecordError
	require.True(t, errors.As(errs[0], &re))
	assert.Equal(t, 1, re.Index)
}

func TestValidate_NumberAsStringRejectedFromEverySource(t *testing.T) {
	s := messageSchema(t)

	for _, v := range []any{5, int64(5), 5.0, json.Number("5")} {
		_, err := s.Validate(domain.Record{"id": 1, "message": v})

		var tm *apperr.TypeMismatchError
		require.True(t, errors.As(err, &tm), "%T", v)
		assert.Equal(t, "message", tm.Field)
	}
}
