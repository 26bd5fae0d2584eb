package bq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/DjordjeVuckovic/table-ingest/internal/apperr"
	"github.com/DjordjeVuckovic/table-ingest/internal/domain"
	"github.com/DjordjeVuckovic/table-ingest/internal/schema"
)

type Config struct {
	// Project is used for tables that do not name one and for billing queries.
	Project  string
	Location string
	// Endpoint overrides the API endpoint, e.g. for an emulator. Authentication is skipped when set.
	Endpoint string
}

// Backend writes to BigQuery with the streaming insert API.
type Backend struct {
	client   *bigquery.Client
	project  string
	location string
}

func NewBackend(ctx context.Context, cfg Config) (*Backend, error) {
	if cfg.Project == "" {
		return nil, fmt.Errorf("bigquery project is required")
	}
	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	}
	client, err := bigquery.NewClient(ctx, cfg.Project, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create BigQuery client: %w", err)
	}
	if cfg.Location != "" {
		client.Location = cfg.Location
	}
	return &Backend{client: client, project: cfg.Project, location: cfg.Location}, nil
}

func (b *Backend) Name() string {
	return "bq"
}

func (b *Backend) resolve(t domain.TableSpec) domain.TableSpec {
	return t.WithProject(b.project)
}

func (b *Backend) table(t domain.TableSpec) *bigquery.Table {
	t = b.resolve(t)
	return b.client.DatasetInProject(t.Project(), t.Dataset()).Table(t.Table())
}

func (b *Backend) Exists(ctx context.Context, t domain.TableSpec) (bool, error) {
	_, err := b.table(t).Metadata(ctx)
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get table metadata: %w", err)
	}
	return true, nil
}

// Create makes the dataset when missing, then the table.
func (b *Backend) Create(ctx context.Context, t domain.TableSpec, s *schema.Schema) error {
	t = b.resolve(t)
	ds := b.client.DatasetInProject(t.Project(), t.Dataset())
	if _, err := ds.Metadata(ctx); isNotFound(err) {
		slog.Info("Dataset does not exist, creating", "project", t.Project(), "dataset", t.Dataset())
		if err := ds.Create(ctx, &bigquery.DatasetMetadata{Location: b.location}); err != nil && !isConflict(err) {
			return fmt.Errorf("failed to create dataset: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to get dataset metadata: %w", err)
	}

	err := ds.Table(t.Table()).Create(ctx, &bigquery.TableMetadata{Schema: tableSchema(s)})
	if isConflict(err) {
		return apperr.ErrTableExists
	}
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

func (b *Backend) Describe(ctx context.Context, t domain.TableSpec) (*schema.Schema, error) {
	md, err := b.table(t).Metadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get table metadata: %w", err)
	}
	return describe(md.Schema), nil
}

// CountRows queries the table so rows still in the streaming buffer are counted.
func (b *Backend) CountRows(ctx context.Context, t domain.TableSpec) (int64, error) {
	q := b.client.Query(fmt.Sprintf("SELECT COUNT(*) FROM %s", b.qualified(t)))
	it, err := q.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	var row []bigquery.Value
	err = it.Next(&row)
	if errors.Is(err, iterator.Done) || len(row) == 0 {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read row count: %w", err)
	}
	n, ok := row[0].(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected row count type %T", row[0])
	}
	return n, nil
}

func (b *Backend) Truncate(ctx context.Context, t domain.TableSpec) error {
	job, err := b.client.Query("TRUNCATE TABLE " + b.qualified(t)).Run(ctx)
	if err != nil {
		return truncateError(err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return truncateError(err)
	}
	if err := status.Err(); err != nil {
		return truncateError(err)
	}
	return nil
}

func (b *Backend) qualified(t domain.TableSpec) string {
	t = b.resolve(t)
	return fmt.Sprintf("`%s.%s.%s`", t.Project(), t.Dataset(), t.Table())
}

// Insert streams rows. Rows named in a PutMultiError are rejected, the rest are stored.
func (b *Backend) Insert(ctx context.Context, t domain.TableSpec, columns []schema.Field, rows []domain.ValidatedRecord) ([]apperr.RowRejection, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	bs := make(bigquery.Schema, 0, len(columns))
	for _, c := range columns {
		bs = append(bs, &bigquery.FieldSchema{Name: c.Name, Type: toBQ[c.Type], Required: !c.Optional})
	}

	savers := make([]*bigquery.ValuesSaver, len(rows))
	for i, r := range rows {
		values := make([]bigquery.Value, len(columns))
		for j, c := range columns {
			values[j] = r[c.Name]
		}
		savers[i] = &bigquery.ValuesSaver{Schema: bs, Row: values}
	}

	err := b.table(t).Inserter().Put(ctx, savers)
	if err == nil {
		return nil, nil
	}
	var multi bigquery.PutMultiError
	if !errors.As(err, &multi) {
		return nil, fmt.Errorf("failed to insert rows: %w", err)
	}
	return rejections(multi), nil
}

func rejections(multi bigquery.PutMultiError) []apperr.RowRejection {
	out := make([]apperr.RowRejection, 0, len(multi))
	for _, rie := range multi {
		out = append(out, apperr.RowRejection{Index: rie.RowIndex, Reason: rie.Errors.Error()})
	}
	slices.SortFunc(out, func(a, b apperr.RowRejection) int { return a.Index - b.Index })
	return out
}

func (b *Backend) Ping(ctx context.Context) error {
	it := b.client.Datasets(ctx)
	it.ProjectID = b.project
	_, err := it.Next()
	if err != nil && !errors.Is(err, iterator.Done) {
		return err
	}
	return nil
}

func (b *Backend) Close() error {
	return b.client.Close()
}
