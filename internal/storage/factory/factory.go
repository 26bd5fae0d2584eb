package factory

import (
	"context"
	"fmt"

	"github.com/DjordjeVuckovic/table-ingest/internal/storage"
	"github.com/DjordjeVuckovic/table-ingest/internal/storage/bq"
	"github.com/DjordjeVuckovic/table-ingest/internal/storage/es"
	"github.com/DjordjeVuckovic/table-ingest/internal/storage/in_mem"
	"github.com/DjordjeVuckovic/table-ingest/internal/storage/pg"
	"github.com/DjordjeVuckovic/table-ingest/internal/storage/sqldb"
)

// NewBackend connects the backend selected by cfg.Type.
func NewBackend(ctx context.Context, cfg *StorageConfig) (storage.Backend, error) {
	switch cfg.Type {
	case storage.PG:
		if cfg.Pg == nil {
			return nil, fmt.Errorf("missing PostgreSQL configuration")
		}
		pool, err := pg.NewConnectionPool(ctx, *cfg.Pg)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL connection pool: %w", err)
		}
		return pg.NewBackend(pool), nil

	case storage.ES:
		if cfg.Es == nil {
			return nil, fmt.Errorf("missing Elasticsearch configuration")
		}
		return es.NewBackend(*cfg.Es)

	case storage.SQL:
		if cfg.SQL == nil {
			return nil, fmt.Errorf("missing SQL configuration")
		}
		return sqldb.Open(ctx, *cfg.SQL)

	case storage.BigQuery:
		if cfg.BQ == nil {
			return nil, fmt.Errorf("missing BigQuery configuration")
		}
		return bq.NewBackend(ctx, *cfg.BQ)

	case storage.InMem:
		return in_mem.NewBackend(), nil

	default:
		return nil, fmt.Errorf(string(storage.ErrUnsupportedStorer), cfg.Type)
	}
}

// NewSink wraps the configured backend in a Sink with the configured limits.
func NewSink(ctx context.Context, cfg *StorageConfig) (*storage.Sink, error) {
	backend, err := NewBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return storage.NewSink(backend,
		storage.WithStepTimeout(cfg.StepTimeout),
		storage.WithBatchSize(cfg.BatchSize),
	), nil
}
