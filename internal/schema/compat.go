package schema

import "github.com/DjordjeVuckovic/table-ingest/internal/apperr"

// Compatible reports every required field of s that is missing from remote or
// declared there with another type. Optional fields only count when present remotely
// with a different type. A nil result means s can be written into remote.
func (s *Schema) Compatible(remote *Schema) []apperr.FieldMismatch {
	var mismatches []apperr.FieldMismatch
	for _, f := range s.fields {
		rf, ok := remote.Field(f.Name)
		if !ok {
			if !f.Optional {
				mismatches = append(mismatches, apperr.FieldMismatch{Field: f.Name, Expected: string(f.Type)})
			}
			continue
		}
		if rf.Type != f.Type {
			mismatches = append(mismatches, apperr.FieldMismatch{
				Field:    f.Name,
				Expected: string(f.Type),
				Actual:   string(rf.Type),
			})
		}
	}
	return mismatches
}

// Intersect returns the fields of s that also exist in remote, in s order.
// These are the columns a commit into an existing table writes.
func (s *Schema) Intersect(remote *Schema) []Field {
	out := make([]Field, 0, len(s.fields))
	for _, f := range s.fields {
		if _, ok := remote.Field(f.Name); ok {
			out = append(out, f)
		}
	}
	return out
}
