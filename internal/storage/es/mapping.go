package es

import (
	"slices"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/dynamicmapping"

	"github.com/DjordjeVuckovic/table-ingest/internal/domain"
	"github.com/DjordjeVuckovic/table-ingest/internal/schema"
)

// indexName maps a table to an index. Index names must be lower case.
func indexName(t domain.TableSpec) string {
	return strings.ToLower(t.Dataset() + "." + t.Table())
}

func property(ft schema.FieldType) types.Property {
	switch ft {
	case schema.Integer:
		return types.NewLongNumberProperty()
	case schema.Float:
		return types.NewDoubleNumberProperty()
	case schema.Boolean:
		return types.NewBooleanProperty()
	case schema.Timestamp:
		return types.NewDateProperty()
	default:
		return types.NewKeywordProperty()
	}
}

// typeMapping builds a strict mapping so documents with unmapped fields are refused.
func typeMapping(s *schema.Schema) *types.TypeMapping {
	strict := dynamicmapping.Strict
	props := make(map[string]types.Property, s.Len())
	for _, f := range s.Fields() {
		props[f.Name] = property(f.Type)
	}
	return &types.TypeMapping{
		Dynamic:    &strict,
		Properties: props,
	}
}

// fieldType maps a remote property back to a field type. Elasticsearch has no
// required fields, so every described field is optional.
func fieldType(p types.Property) schema.FieldType {
	switch p.(type) {
	case *types.LongNumberProperty, *types.IntegerNumberProperty, *types.ShortNumberProperty:
		return schema.Integer
	case *types.DoubleNumberProperty, *types.FloatNumberProperty:
		return schema.Float
	case *types.KeywordProperty, *types.TextProperty:
		return schema.String
	case *types.BooleanProperty:
		return schema.Boolean
	case *types.DateProperty, *types.DateNanosProperty:
		return schema.Timestamp
	default:
		return "UNSUPPORTED"
	}
}

func describeMapping(m types.TypeMapping) *schema.Schema {
	names := make([]string, 0, len(m.Properties))
	for name := range m.Properties {
		names = append(names, name)
	}
	slices.Sort(names)

	fields := make([]schema.Field, 0, len(names))
	for _, name := range names {
		fields = append(fields, schema.Field{
			Name:     name,
			Type:     fieldType(m.Properties[name]),
			Optional: true,
		})
	}
	return schema.Describe(fields)
}
