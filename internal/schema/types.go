package schema

import (
	"fmt"
	"strings"
)

// FieldType is the declared column type of a schema field.
type FieldType string

const (
	Integer   FieldType = "INTEGER"
	String    FieldType = "STRING"
	Float     FieldType = "FLOAT"
	Boolean   FieldType = "BOOLEAN"
	Timestamp FieldType = "TIMESTAMP"
)

var typeAliases = map[string]FieldType{
	"INTEGER":   Integer,
	"INT":       Integer,
	"INT64":     Integer,
	"STRING":    String,
	"TEXT":      String,
	"FLOAT":     Float,
	"FLOAT64":   Float,
	"DOUBLE":    Float,
	"BOOLEAN":   Boolean,
	"BOOL":      Boolean,
	"TIMESTAMP": Timestamp,
	"DATETIME":  Timestamp,
}

// ParseFieldType resolves a type name case-insensitively, accepting common aliases.
func ParseFieldType(s string) (FieldType, error) {
	t, ok := typeAliases[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unsupported field type %q", s)
	}
	return t, nil
}

func (t FieldType) Valid() bool {
	switch t {
	case Integer, String, Float, Boolean, Timestamp:
		return true
	}
	return false
}

func (t FieldType) String() string {
	return string(t)
}

// Mode controls how record keys that the schema does not declare are treated.
type Mode string

const (
	Strict     Mode = "strict"
	Permissive Mode = "permissive"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", Strict:
		return Strict, nil
	case Permissive:
		return Permissive, nil
	default:
		return "", fmt.Errorf("unknown schema mode %q, expected strict or permissive", s)
	}
}
