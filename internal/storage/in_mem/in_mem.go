package in_mem

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/DjordjeVuckovic/table-ingest/internal/apperr"
	"github.com/DjordjeVuckovic/table-ingest/internal/domain"
	"github.com/DjordjeVuckovic/table-ingest/internal/schema"
)

type table struct {
	schema *schema.Schema
	rows   []domain.ValidatedRecord
}

// Backend keeps tables in process memory. It is safe for concurrent use.
type Backend struct {
	storageLock sync.RWMutex
	tables      map[string]*table
}

func NewBackend() *Backend {
	return &Backend{
		tables: make(map[string]*table),
	}
}

func (b *Backend) Name() string {
	return "in_mem"
}

func (b *Backend) Exists(ctx context.Context, t domain.TableSpec) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	b.storageLock.RLock()
	defer b.storageLock.RUnlock()
	_, ok := b.tables[t.String()]
	return ok, nil
}

func (b *Backend) Create(ctx context.Context, t domain.TableSpec, s *schema.Schema) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.storageLock.Lock()
	defer b.storageLock.Unlock()
	if _, ok := b.tables[t.String()]; ok {
		return apperr.ErrTableExists
	}
	b.tables[t.String()] = &table{schema: s}
	slog.Debug("In-memory table created", "table", t.String(), "schema", s.String())
	return nil
}

func (b *Backend) Describe(ctx context.Context, t domain.TableSpec) (*schema.Schema, error) {
	tbl, err := b.get(ctx, t)
	if err != nil {
		return nil, err
	}
	return tbl.schema, nil
}

func (b *Backend) CountRows(ctx context.Context, t domain.TableSpec) (int64, error) {
	tbl, err := b.get(ctx, t)
	if err != nil {
		return 0, err
	}
	b.storageLock.RLock()
	defer b.storageLock.RUnlock()
	return int64(len(tbl.rows)), nil
}

func (b *Backend) Truncate(ctx context.Context, t domain.TableSpec) error {
	tbl, err := b.get(ctx, t)
	if err != nil {
		return err
	}
	b.storageLock.Lock()
	defer b.storageLock.Unlock()
	tbl.rows = nil
	return nil
}

// Insert stores the rows restricted to columns. A row holding a value whose Go
// type does not match its column is rejected.
func (b *Backend) Insert(ctx context.Context, t domain.TableSpec, columns []schema.Field, rows []domain.ValidatedRecord) ([]apperr.RowRejection, error) {
	tbl, err := b.get(ctx, t)
	if err != nil {
		return nil, err
	}

	b.storageLock.Lock()
	defer b.storageLock.Unlock()

	var rejected []apperr.RowRejection
	for i, row := range rows {
		stored := make(domain.ValidatedRecord, len(columns))
		var rowErr error
		for _, col := range columns {
			v, ok := row[col.Name]
			if !ok || v == nil {
				continue
			}
			if _, err := schema.Coerce(v, col.Type); err != nil {
				rowErr = fmt.Errorf("column %s: %w", col.Name, err)
				break
			}
			stored[col.Name] = v
		}
		if rowErr != nil {
			rejected = append(rejected, apperr.RowRejection{Index: i, Reason: rowErr.Error()})
			continue
		}
		tbl.rows = append(tbl.rows, stored)
	}
	return rejected, nil
}

func (b *Backend) Close() error {
	return nil
}

func (b *Backend) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Rows returns a copy of the rows stored in t.
func (b *Backend) Rows(t domain.TableSpec) []domain.ValidatedRecord {
	b.storageLock.RLock()
	defer b.storageLock.RUnlock()
	tbl, ok := b.tables[t.String()]
	if !ok {
		return nil
	}
	out := make([]domain.ValidatedRecord, len(tbl.rows))
	copy(out, tbl.rows)
	return out
}

func (b *Backend) get(ctx context.Context, t domain.TableSpec) (*table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.storageLock.RLock()
	defer b.storageLock.RUnlock()
	tbl, ok := b.tables[t.String()]
	if !ok {
		return nil, fmt.Errorf("in-memory table %s does not exist", t)
	}
	return tbl, nil
}
