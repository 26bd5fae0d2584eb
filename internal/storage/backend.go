package storage

import (
	"context"

	"github.com/DjordjeVuckovic/table-ingest/internal/apperr"
	"github.com/DjordjeVuckovic/table-ingest/internal/domain"
	"github.com/DjordjeVuckovic/table-ingest/internal/schema"
)

// TableSink is the single persisted-state boundary of a run.
type TableSink interface {
	Commit(
		ctx context.Context,
		table domain.TableSpec,
		s *schema.Schema,
		rows []domain.ValidatedRecord,
		d domain.WriteDisposition,
	) (domain.CommitResult, error)
}

// Backend is the set of table primitives a destination must provide.
// Every method must honour ctx cancellation; the Sink bounds each call with a deadline.
type Backend interface {
	// Name identifies the backend in logs and metrics.
	Name() string

	Exists(ctx context.Context, table domain.TableSpec) (bool, error)

	// Create creates the table with s as its shape. When another writer created it
	// first, Create returns apperr.ErrTableExists.
	Create(ctx context.Context, table domain.TableSpec, s *schema.Schema) error

	// Describe reports the remote columns of an existing table.
	Describe(ctx context.Context, table domain.TableSpec) (*schema.Schema, error)

	CountRows(ctx context.Context, table domain.TableSpec) (int64, error)

	Truncate(ctx context.Context, table domain.TableSpec) error

	// Insert writes rows using columns. Rows the destination refuses are returned
	// with their index within rows; accepted rows stay written. A non-nil error
	// means the batch could not be submitted at all.
	Insert(ctx context.Context, table domain.TableSpec, columns []schema.Field, rows []domain.ValidatedRecord) ([]apperr.RowRejection, error)

	Close() error
}

// Pinger is implemented by backends that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Type string

const (
	ES       Type = "es"
	PG       Type = "pg"
	SQL      Type = "sql"
	BigQuery Type = "bq"
	InMem    Type = "in_mem"
)

// Types lists every supported backend type.
var Types = []Type{ES, PG, SQL, BigQuery, InMem}

type StorerError string

const (
	ErrUnsupportedStorer StorerError = "unsupported storage type: %s"
)

func (e StorerError) Error() string {
	return string(e)
}
