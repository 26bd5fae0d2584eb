package pg

import (
	"strings"

	"github.com/DjordjeVuckovic/table-ingest/internal/schema"
)

func columnType(t schema.FieldType) string {
	switch t {
	case schema.Integer:
		return "BIGINT"
	case schema.Float:
		return "DOUBLE PRECISION"
	case schema.Boolean:
		return "BOOLEAN"
	case schema.Timestamp:
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}

// fieldType maps an information_schema data_type back to a field type.
// Types with no counterpart are passed through upper-cased so they never match.
func fieldType(dataType string) schema.FieldType {
	switch strings.ToLower(dataType) {
	case "bigint", "integer", "smallint", "int8", "int4":
		return schema.Integer
	case "double precision", "real", "numeric", "float8":
		return schema.Float
	case "text", "character varying", "character":
		return schema.String
	case "boolean":
		return schema.Boolean
	case "timestamp with time zone", "timestamp without time zone", "timestamptz", "date":
		return schema.Timestamp
	default:
		return schema.FieldType(strings.ToUpper(dataType))
	}
}
