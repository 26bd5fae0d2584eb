package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/DjordjeVuckovic/table-ingest/internal/apperr"
	"github.com/DjordjeVuckovic/table-ingest/internal/domain"
	"github.com/DjordjeVuckovic/table-ingest/internal/metrics"
	"github.com/DjordjeVuckovic/table-ingest/internal/schema"
)

const (
	defaultStepTimeout = 30 * time.Second
	defaultBatchSize   = 500
)

// Sink runs the commit state machine against a Backend.
type Sink struct {
	backend     Backend
	stepTimeout time.Duration
	batchSize   int
}

type SinkOption func(*Sink)

// WithStepTimeout bounds every backend call (exists, create, describe, count,
// truncate and each write batch).
func WithStepTimeout(d time.Duration) SinkOption {
	return func(s *Sink) {
		if d > 0 {
			s.stepTimeout = d
		}
	}
}

// WithBatchSize sets how many rows go into one Insert call.
func WithBatchSize(n int) SinkOption {
	return func(s *Sink) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

func NewSink(backend Backend, opts ...SinkOption) *Sink {
	s := &Sink{
		backend:     backend,
		stepTimeout: defaultStepTimeout,
		batchSize:   defaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sink) Backend() Backend {
	return s.backend
}

func (s *Sink) Close() error {
	return s.backend.Close()
}

// Commit creates or verifies the table, applies the write policy and writes rows.
func (s *Sink) Commit(
	ctx context.Context,
	table domain.TableSpec,
	sch *schema.Schema,
	rows []domain.ValidatedRecord,
	d domain.WriteDisposition,
) (domain.CommitResult, error) {
	start := time.Now()
	c := &commit{sink: s, table: table, state: StateUnknown}

	res, err := c.run(ctx, sch, rows, d)

	outcome := "success"
	if err != nil {
		outcome = "failed"
		c.transition(StateFailed)
		slog.Error("Commit failed",
			"backend", s.backend.Name(),
			"table", table.String(),
			"disposition", d.String(),
			"error", err,
		)
	} else {
		slog.Info("Commit completed",
			"backend", s.backend.Name(),
			"table", table.String(),
			"rows_written", res.RowsWritten,
			"table_created", res.TableCreated,
			"duration", time.Since(start),
		)
	}
	metrics.CommitDuration.WithLabelValues(s.backend.Name(), outcome).Observe(time.Since(start).Seconds())
	return res, err
}

type commit struct {
	sink  *Sink
	table domain.TableSpec
	state TableState
}

func (c *commit) transition(to TableState) {
	if !CanTransition(c.state, to) {
		// unreachable unless run() is changed incorrectly
		panic(fmt.Sprintf("invalid commit transition %s -> %s", c.state, to))
	}
	slog.Debug("Table state transition",
		"backend", c.sink.backend.Name(),
		"table", c.table.String(),
		"from", c.state,
		"to", to,
	)
	c.state = to
}

func (c *commit) run(
	ctx context.Context,
	sch *schema.Schema,
	rows []domain.ValidatedRecord,
	d domain.WriteDisposition,
) (domain.CommitResult, error) {
	if sch == nil {
		return domain.CommitResult{}, fmt.Errorf("commit %s: schema is required", c.table)
	}
	if c.table.IsZero() {
		return domain.CommitResult{}, fmt.Errorf("commit: table spec is required")
	}
	switch d.Write {
	case domain.WriteAppend, domain.WriteTruncate, domain.WriteEmptyOnly:
	default:
		return domain.CommitResult{}, fmt.Errorf("commit %s: unknown write mode %q", c.table, d.Write)
	}

	b := c.sink.backend

	exists, err := doStep(ctx, c, "exists", func(ctx context.Context) (bool, error) {
		return b.Exists(ctx, c.table)
	})
	if err != nil {
		return domain.CommitResult{}, err
	}

	created := false
	if exists {
		c.transition(StateExists)
	} else {
		c.transition(StateAbsent)

		switch d.Create {
		case domain.CreateNever:
			return domain.CommitResult{}, &apperr.TableNotFoundError{Table: c.table.String()}
		case domain.CreateIfNeeded:
		default:
			return domain.CommitResult{}, fmt.Errorf("commit %s: unknown create disposition %q", c.table, d.Create)
		}

		_, err := doStep(ctx, c, "create", func(ctx context.Context) (struct{}, error) {
			return struct{}{}, b.Create(ctx, c.table, sch)
		})
		switch {
		case errors.Is(err, apperr.ErrTableExists):
			slog.Info("Table created concurrently, verifying instead",
				"backend", b.Name(),
				"table", c.table.String(),
			)
			exists = true
			c.transition(StateExists)
		case err != nil:
			return domain.CommitResult{}, err
		default:
			created = true
			metrics.TablesCreated.WithLabelValues(b.Name()).Inc()
			c.transition(StateCreated)
		}
	}

	columns := sch.Fields()
	if exists {
		if len(rows) == 0 && d.Write == domain.WriteAppend {
			c.transition(StateSkipped)
			c.transition(StateWritten)
			return domain.CommitResult{RowsWritten: 0, TableCreated: false}, nil
		}

		columns, err = c.verify(ctx, sch, rows)
		if err != nil {
			return domain.CommitResult{}, err
		}
		c.transition(StateVerified)
	}

	if !created {
		if err := c.applyWriteMode(ctx, d.Write); err != nil {
			return domain.CommitResult{}, err
		}
	}

	written, err := c.write(ctx, columns, rows)
	if err != nil {
		return domain.CommitResult{}, err
	}

	c.transition(StateWritten)
	return domain.CommitResult{RowsWritten: written, TableCreated: created}, nil
}

// verify checks the remote shape and returns the columns to write. An optional
// field missing remotely is only accepted while no row carries a value for it.
func (c *commit) verify(ctx context.Context, sch *schema.Schema, rows []domain.ValidatedRecord) ([]schema.Field, error) {
	b := c.sink.backend
	remote, err := doStep(ctx, c, "describe", func(ctx context.Context) (*schema.Schema, error) {
		return b.Describe(ctx, c.table)
	})
	if err != nil {
		return nil, err
	}

	mm := sch.Compatible(remote)
	for _, f := range sch.Fields() {
		if _, ok := remote.Field(f.Name); ok || !f.Optional {
			continue
		}
		if hasValue(rows, f.Name) {
			mm = append(mm, apperr.FieldMismatch{Field: f.Name, Expected: string(f.Type)})
			continue
		}
		slog.Debug("Optional field missing from remote table, all values null",
			"table", c.table.String(),
			"field", f.Name,
		)
	}
	if len(mm) > 0 {
		return nil, &apperr.SchemaMismatchError{Table: c.table.String(), Fields: mm}
	}
	return sch.Intersect(remote), nil
}

func hasValue(rows []domain.ValidatedRecord, field string) bool {
	for _, r := range rows {
		if v, ok := r[field]; ok && v != nil {
			return true
		}
	}
	return false
}

// applyWriteMode enforces TRUNCATE and EMPTY_ONLY on a table that existed before the commit.
func (c *commit) applyWriteMode(ctx context.Context, mode domain.WriteMode) error {
	b := c.sink.backend
	switch mode {
	case domain.WriteTruncate:
		_, err := doStep(ctx, c, "truncate", func(ctx context.Context) (struct{}, error) {
			return struct{}{}, b.Truncate(ctx, c.table)
		})
		return err
	case domain.WriteEmptyOnly:
		n, err := doStep(ctx, c, "count", func(ctx context.Context) (int64, error) {
			return b.CountRows(ctx, c.table)
		})
		if err != nil {
			return err
		}
		if n > 0 {
			return &apperr.TableNotEmptyError{Table: c.table.String(), Rows: n}
		}
	}
	return nil
}

// write submits rows in order, batch by batch, and collects rejected rows across all batches.
func (c *commit) write(ctx context.Context, columns []schema.Field, rows []domain.ValidatedRecord) (int, error) {
	b := c.sink.backend
	size := c.sink.batchSize

	written := 0
	var rejected []apperr.RowRejection
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		batch := rows[start:end]

		rej, err := doStep(ctx, c, "write", func(ctx context.Context) ([]apperr.RowRejection, error) {
			return b.Insert(ctx, c.table, columns, batch)
		})
		if err != nil {
			slog.Error("Write batch failed",
				"table", c.table.String(),
				"batch_start", start,
				"rows_written", written,
				"error", err,
			)
			return written, fmt.Errorf("write rows %d-%d: %w", start, end-1, err)
		}

		for _, r := range rej {
			r.Index += start
			rejected = append(rejected, r)
		}
		written += len(batch) - len(rej)
		slog.Debug("Batch written",
			"table", c.table.String(),
			"batch_start", start,
			"batch_size", len(batch),
			"rejected", len(rej),
		)
	}

	metrics.RowsWritten.WithLabelValues(b.Name()).Add(float64(written))
	if len(rejected) > 0 {
		metrics.RowsRejected.WithLabelValues(b.Name()).Add(float64(len(rejected)))
		return written, &apperr.RowRejectedError{
			Table:    c.table.String(),
			Rejected: rejected,
			Accepted: written,
		}
	}
	return written, nil
}

// doStep runs fn under the sink's step deadline. A step that hits the deadline
// is a TimeoutError even if the backend swallowed the context error.
func doStep[T any](ctx context.Context, c *commit, step string, fn func(context.Context) (T, error)) (T, error) {
	stepCtx, cancel := context.WithTimeout(ctx, c.sink.stepTimeout)
	defer cancel()

	v, err := fn(stepCtx)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(stepCtx.Err(), context.DeadlineExceeded) {
		var zero T
		metrics.StepTimeouts.WithLabelValues(c.sink.backend.Name(), step).Inc()
		return zero, &apperr.TimeoutError{Step: step, Err: context.DeadlineExceeded}
	}
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s %s: %w", step, c.table, err)
	}
	return v, nil
}
