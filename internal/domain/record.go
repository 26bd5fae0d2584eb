package domain

// Record is a single row as produced by a source, keyed by field name.
type Record map[string]any

// ValidatedRecord is a Record whose values were checked and coerced against a schema.
// Values are always one of int64, float64, string, bool, time.Time or nil.
type ValidatedRecord map[string]any

// Record returns a copy of the validated values as a plain Record.
func (v ValidatedRecord) Record() Record {
	out := make(Record, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, val := range r {
		out[k] = val
	}
	return out
}
