package es

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"

	"github.com/DjordjeVuckovic/table-ingest/internal/apperr"
	"github.com/DjordjeVuckovic/table-ingest/internal/domain"
	"github.com/DjordjeVuckovic/table-ingest/internal/schema"
)

const errIndexExists = "resource_already_exists_exception"

// Backend stores each table as an index with a strict mapping.
type Backend struct {
	client  *elasticsearch.TypedClient
	workers int
}

func NewBackend(config ClientConfig) (*Backend, error) {
	client, err := newClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}
	workers := config.BulkWorkers
	if workers <= 0 {
		workers = 1
	}
	return &Backend{client: client, workers: workers}, nil
}

func (b *Backend) Name() string {
	return "es"
}

func (b *Backend) Exists(ctx context.Context, t domain.TableSpec) (bool, error) {
	ok, err := b.client.Indices.Exists(indexName(t)).Do(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check if index exists: %w", err)
	}
	return ok, nil
}

func (b *Backend) Create(ctx context.Context, t domain.TableSpec, s *schema.Schema) error {
	idx := indexName(t)
	res, err := b.client.Indices.Create(idx).
		Mappings(typeMapping(s)).
		Do(ctx)
	if err != nil {
		var esErr *types.ElasticsearchError
		if errors.As(err, &esErr) && esErr.ErrorCause.Type == errIndexExists {
			return apperr.ErrTableExists
		}
		return fmt.Errorf("failed to create index: %w", err)
	}
	if !res.Acknowledged {
		return fmt.Errorf("index creation was not acknowledged")
	}

	slog.Info("Index created successfully", "index", idx)
	return nil
}

func (b *Backend) Describe(ctx context.Context, t domain.TableSpec) (*schema.Schema, error) {
	idx := indexName(t)
	res, err := b.client.Indices.GetMapping().Index(idx).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get mapping: %w", err)
	}
	rec, ok := res[idx]
	if !ok {
		return nil, fmt.Errorf("no mapping returned for index %s", idx)
	}
	return describeMapping(rec.Mappings), nil
}

func (b *Backend) CountRows(ctx context.Context, t domain.TableSpec) (int64, error) {
	res, err := b.client.Count().Index(indexName(t)).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return res.Count, nil
}

// Truncate deletes every document and refreshes the index. The mapping stays.
func (b *Backend) Truncate(ctx context.Context, t domain.TableSpec) error {
	_, err := b.client.DeleteByQuery(indexName(t)).
		Query(&types.Query{MatchAll: &types.MatchAllQuery{}}).
		Refresh(true).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	return nil
}

// Insert bulk indexes rows and reports the items the cluster refused. The index is
// refreshed afterwards so the rows are visible to the next count.
func (b *Backend) Insert(ctx context.Context, t domain.TableSpec, columns []schema.Field, rows []domain.ValidatedRecord) ([]apperr.RowRejection, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	idx := indexName(t)

	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Index:         idx,
		Client:        b.client,
		NumWorkers:    b.workers,
		FlushBytes:    5e+6, // 5MB
		FlushInterval: 30 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bulk indexer: %w", err)
	}

	var (
		mu       sync.Mutex
		rejected []apperr.RowRejection
	)
	reject := func(i int, reason string) {
		mu.Lock()
		defer mu.Unlock()
		rejected = append(rejected, apperr.RowRejection{Index: i, Reason: reason})
	}

	for i, row := range rows {
		body, err := json.Marshal(document(row, columns))
		if err != nil {
			reject(i, fmt.Sprintf("marshal document: %v", err))
			continue
		}

		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action: "index",
			Body:   bytes.NewReader(body),
			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				if err != nil {
					reject(i, err.Error())
					return
				}
				reject(i, fmt.Sprintf("%s: %s", res.Error.Type, res.Error.Reason))
			},
		})
		if err != nil {
			_ = bi.Close(context.Background())
			return nil, fmt.Errorf("failed to add document to bulk indexer: %w", err)
		}
	}

	if err := bi.Close(ctx); err != nil {
		return nil, fmt.Errorf("failed to close bulk indexer: %w", err)
	}
	if _, err := b.client.Indices.Refresh().Index(idx).Do(ctx); err != nil {
		return nil, fmt.Errorf("failed to refresh index: %w", err)
	}

	stats := bi.Stats()
	slog.Debug("Bulk indexing completed",
		"index", idx,
		"indexed", stats.NumIndexed,
		"failed", stats.NumFailed,
		"total", len(rows),
	)

	sortRejections(rejected)
	return rejected, nil
}

// document keeps only the written columns and skips nulls.
func document(row domain.ValidatedRecord, columns []schema.Field) map[string]any {
	doc := make(map[string]any, len(columns))
	for _, c := range columns {
		if v, ok := row[c.Name]; ok && v != nil {
			doc[c.Name] = v
		}
	}
	return doc
}

func sortRejections(r []apperr.RowRejection) {
	slices.SortFunc(r, func(a, b apperr.RowRejection) int { return a.Index - b.Index })
}

func (b *Backend) Ping(ctx context.Context) error {
	ok, err := b.client.Ping().Do(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("elasticsearch ping failed")
	}
	return nil
}

func (b *Backend) Close() error {
	return nil
}
