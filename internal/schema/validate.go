package schema

import (
	"errors"
	"sort"

	"github.com/DjordjeVuckovic/table-ingest/internal/apperr"
	"github.com/DjordjeVuckovic/table-ingest/internal/domain"
)

// Validate checks a record against the schema and returns the coerced values.
// It never mutates the input. All problems are reported: unknown keys first (sorted),
// then missing and mistyped fields in schema order. A nil value counts as absent.
func (s *Schema) Validate(rec domain.Record) (domain.ValidatedRecord, error) {
	var errs []error

	if s.mode == Strict {
		var unknown []string
		for k := range rec {
			if _, ok := s.index[k]; !ok {
				unknown = append(unknown, k)
			}
		}
		sort.Strings(unknown)
		for _, k := range unknown {
			errs = append(errs, &apperr.UnknownFieldError{Field: k})
		}
	}

	out := make(domain.ValidatedRecord, len(s.fields))
	for _, f := range s.fields {
		raw, present := rec[f.Name]
		if !present || raw == nil {
			if !f.Optional {
				errs = append(errs, &apperr.MissingFieldError{Field: f.Name})
			} else if present {
				out[f.Name] = nil
			}
			continue
		}

		v, err := Coerce(raw, f.Type)
		if err != nil {
			errs = append(errs, &apperr.TypeMismatchError{
				Field:    f.Name,
				Expected: string(f.Type),
				Value:    raw,
				Err:      err,
			})
			continue
		}
		out[f.Name] = v
	}

	switch len(errs) {
	case 0:
		return out, nil
	case 1:
		return nil, errs[0]
	default:
		return nil, errors.Join(errs...)
	}
}

// ValidateAll validates a batch and returns every failure wrapped in a RecordError.
// The returned slice only holds records that passed.
func (s *Schema) ValidateAll(records []domain.Record) ([]domain.ValidatedRecord, []error) {
	valid := make([]domain.ValidatedRecord, 0, len(records))
	var errs []error
	for i, rec := range records {
		v, err := s.Validate(rec)
		if err != nil {
			errs = append(errs, &apperr.RecordError{Index: i, Err: err})
			continue
		}
		valid = append(valid, v)
	}
	return valid, errs
}
