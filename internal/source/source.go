package source

import (
	"context"

	"github.com/DjordjeVuckovic/table-ingest/internal/domain"
)

// RecordSource produces the bounded batch of records for one run.
// FetchAll must be restartable: every call yields the same ordered sequence.
type RecordSource interface {
	FetchAll(ctx context.Context) ([]domain.Record, error)
}
