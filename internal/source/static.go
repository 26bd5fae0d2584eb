package source

import (
	"context"

	"github.com/DjordjeVuckovic/table-ingest/internal/domain"
)

// Static serves a literal list of records.
type Static struct {
	records []domain.Record
}

// NewStatic copies records so later changes by the caller don't leak into the batch.
func NewStatic(records []domain.Record) *Static {
	return &Static{records: cloneAll(records)}
}

func (s *Static) FetchAll(ctx context.Context) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return cloneAll(s.records), nil
}

func cloneAll(records []domain.Record) []domain.Record {
	out := make([]domain.Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
