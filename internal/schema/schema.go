package schema

import (
	"fmt"
	"strings"
)

// Field is a named, typed column. Fields are required unless Optional is set.
type Field struct {
	Name     string    `json:"name" yaml:"name"`
	Type     FieldType `json:"type" yaml:"type"`
	Optional bool      `json:"optional,omitempty" yaml:"optional,omitempty"`
}

func (f Field) String() string {
	if f.Optional {
		return f.Name + ":" + string(f.Type) + ":NULLABLE"
	}
	return f.Name + ":" + string(f.Type)
}

// Schema is an immutable, ordered set of uniquely named fields.
// Order only matters for display and table creation; records are matched by name.
type Schema struct {
	fields []Field
	index  map[string]int
	mode   Mode
}

type Option func(*Schema)

// WithMode sets how unknown record keys are handled. Strict is the default.
func WithMode(m Mode) Option {
	return func(s *Schema) {
		s.mode = m
	}
}

func New(fields []Field, opts ...Option) (*Schema, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("schema must declare at least one field")
	}

	s := &Schema{
		fields: make([]Field, len(fields)),
		index:  make(map[string]int, len(fields)),
		mode:   Strict,
	}
	for i, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("field %d: name is required", i)
		}
		if !f.Type.Valid() {
			return nil, fmt.Errorf("field %q: unsupported type %q", f.Name, f.Type)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("field %q declared twice", f.Name)
		}
		s.fields[i] = f
		s.index[f.Name] = i
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.mode != Strict && s.mode != Permissive {
		return nil, fmt.Errorf("unknown schema mode %q", s.mode)
	}
	return s, nil
}

// MustNew is New for schemas known to be valid at compile time.
func MustNew(fields []Field, opts ...Option) *Schema {
	s, err := New(fields, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Parse reads the compact "name:TYPE[:MODE],..." notation, e.g. "id:INTEGER,message:STRING".
// MODE is REQUIRED (default) or NULLABLE.
func Parse(def string, opts ...Option) (*Schema, error) {
	var fields []Field
	for _, part := range strings.Split(def, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		pieces := strings.Split(part, ":")
		if len(pieces) < 2 || len(pieces) > 3 {
			return nil, fmt.Errorf("schema field %q: expected name:TYPE[:MODE]", part)
		}
		ft, err := ParseFieldType(pieces[1])
		if err != nil {
			return nil, fmt.Errorf("schema field %q: %w", part, err)
		}
		f := Field{Name: strings.TrimSpace(pieces[0]), Type: ft}
		if len(pieces) == 3 {
			switch strings.ToUpper(strings.TrimSpace(pieces[2])) {
			case "REQUIRED":
			case "NULLABLE":
				f.Optional = true
			default:
				return nil, fmt.Errorf("schema field %q: unknown mode %q", part, pieces[2])
			}
		}
		fields = append(fields, f)
	}
	return New(fields, opts...)
}

// Fields returns a copy of the fields in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

func (s *Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

func (s *Schema) Mode() Mode {
	return s.mode
}

func (s *Schema) Len() int {
	return len(s.fields)
}

func (s *Schema) String() string {
	parts := make([]string, len(s.fields))
	for i, f := range s.fields {
		parts[i] = f.String()
	}
	return strings.Join(parts, ",")
}

// Describe builds the schema of an existing table as reported by a backend.
// Unlike New it keeps column types outside the supported set (e.g. "JSONB") so
// they surface in mismatch reports, and it never fails.
func Describe(fields []Field) *Schema {
	s := &Schema{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
		mode:   Strict,
	}
	for _, f := range fields {
		if _, dup := s.index[f.Name]; dup {
			continue
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s
}
