package bq

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"

	"github.com/DjordjeVuckovic/table-ingest/internal/schema"
)

var toBQ = map[schema.FieldType]bigquery.FieldType{
	schema.Integer:   bigquery.IntegerFieldType,
	schema.Float:     bigquery.FloatFieldType,
	schema.String:    bigquery.StringFieldType,
	schema.Boolean:   bigquery.BooleanFieldType,
	schema.Timestamp: bigquery.TimestampFieldType,
}

var fromBQ = map[bigquery.FieldType]schema.FieldType{
	bigquery.IntegerFieldType:   schema.Integer,
	bigquery.FloatFieldType:     schema.Float,
	bigquery.StringFieldType:    schema.String,
	bigquery.BooleanFieldType:   schema.Boolean,
	bigquery.TimestampFieldType: schema.Timestamp,
	bigquery.DateTimeFieldType:  schema.Timestamp,
}

func tableSchema(s *schema.Schema) bigquery.Schema {
	out := make(bigquery.Schema, 0, s.Len())
	for _, f := range s.Fields() {
		out = append(out, &bigquery.FieldSchema{
			Name:     f.Name,
			Type:     toBQ[f.Type],
			Required: !f.Optional,
		})
	}
	return out
}

// describe turns a remote table schema into a field list. Nested and repeated
// columns keep their BigQuery type name, which never matches a local type.
func describe(bs bigquery.Schema) *schema.Schema {
	fields := make([]schema.Field, 0, len(bs))
	for _, f := range bs {
		ft, ok := fromBQ[f.Type]
		if !ok || f.Repeated {
			ft = schema.FieldType(f.Type)
			if f.Repeated {
				ft = "REPEATED " + ft
			}
		}
		fields = append(fields, schema.Field{
			Name:     f.Name,
			Type:     ft,
			Optional: !f.Required,
		})
	}
	return schema.Describe(fields)
}

func hasStatus(err error, code int) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}

func isNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

func isConflict(err error) bool {
	return hasStatus(err, http.StatusConflict)
}

// ErrStreamingBuffer is returned by Truncate while rows streamed by an earlier
// Insert are still buffered. BigQuery refuses DML on them until the buffer is flushed.
var ErrStreamingBuffer = errors.New("table has rows in the streaming buffer, truncate is refused until they are flushed (up to 90 minutes)")

func isStreamingBuffer(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "streaming buffer")
}

// truncateError names the streaming buffer case and keeps the cause reachable.
func truncateError(err error) error {
	if isStreamingBuffer(err) {
		return fmt.Errorf("%w: %w", ErrStreamingBuffer, err)
	}
	return fmt.Errorf("truncate job failed: %w", err)
}
