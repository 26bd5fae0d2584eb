package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DjordjeVuckovic/table-ingest/internal/apperr"
	"github.com/DjordjeVuckovic/table-ingest/internal/domain"
	"github.com/DjordjeVuckovic/table-ingest/internal/schema"
	"github.com/DjordjeVuckovic/table-ingest/internal/source"
	"github.com/DjordjeVuckovic/table-ingest/internal/storage"
	"github.com/DjordjeVuckovic/table-ingest/internal/storage/in_mem"
)

type spySink struct {
	calls int
	rows  []domain.ValidatedRecord
	err   error
}

func (s *spySink) Commit(_ context.Context, _ domain.TableSpec, _ *schema.Schema, rows []domain.ValidatedRecord, _ domain.WriteDisposition) (domain.CommitResult, error) {
	s.calls++
	s.rows = rows
	if s.err != nil {
		return domain.CommitResult{}, s.err
	}
	return domain.CommitResult{RowsWritten: len(rows)}, nil
}

type failingSource struct{}

func (failingSource) FetchAll(context.Context) ([]domain.Record, error) {
	return nil, errors.New("bucket unreachable")
}

func fixture(t *testing.T) (domain.PipelineOptions, *schema.Schema, domain.TableSpec) {
	t.Helper()
	s, err := schema.Parse("id:INTEGER,message:STRING")
	require.NoError(t, err)
	tbl, err := domain.ParseTableSpec("gcp-practice-project:raw_layer.dataflow_pub_sub")
	require.NoError(t, err)
	opts := domain.PipelineOptions{
		Project:         "gcp-practice-project",
		Region:          "europe-west1",
		StagingLocation: "gs://staging",
		ExecutionMode:   domain.ExecutionDataflow,
		JobName:         "pubsub-ingest",
	}
	return opts, s, tbl
}

func TestRun_WritesIntoNewTable(t *testing.T) {
	// Arrange
	opts, s, tbl := fixture(t)
	backend := in_mem.NewBackend()
	src := source.NewStatic([]domain.Record{
		{"id": 2501, "message": "Via GCS"},
		{"id": 2601, "message": "Awesome"},
	})

	// Act
	status := NewRunner().Run(context.Background(), opts, src, s, storage.NewSink(backend), tbl, domain.DefaultDisposition)

	// Assert
	require.True(t, status.Succeeded(), status.Error)
	assert.Equal(t, ReasonNone, status.Reason)
	assert.Equal(t, &domain.CommitResult{RowsWritten: 2, TableCreated: true}, status.Result)
	assert.Equal(t, 2, status.Records)
	assert.Equal(t, opts, status.Options)
	assert.Equal(t, []domain.ValidatedRecord{
		{"id": int64(2501), "message": "Via GCS"},
		{"id": int64(2601), "message": "Awesome"},
	}, backend.Rows(tbl))
}

func TestRun_InvalidRecordAbortsBeforeSink(t *testing.T) {
	opts, s, tbl := fixture(t)
	sink := &spySink{}
	src := source.NewStatic([]domain.Record{
		{"id": 1, "message": "ok"},
		{"id": "notanint", "message": "x"},
	})

	status := NewRunner().Run(context.Background(), opts, src, s, sink, tbl, domain.DefaultDisposition)

	assert.Equal(t, StatusFailed, status.Status)
	assert.Equal(t, ReasonValidationFailed, status.Reason)
	assert.Zero(t, sink.calls)

	var vf *apperr.ValidationFailedError
	require.ErrorAs(t, status.Err, &vf)
	require.Len(t, vf.Errors, 1)
	var re *apperr.RecordError
	require.ErrorAs(t, vf.Errors[0], &re)
	assert.Equal(t, 1, re.Index)
	var tm *apperr.TypeMismatchError
	assert.ErrorAs(t, status.Err, &tm)
}

func TestRun_SourceFailure(t *testing.T) {
	opts, s, tbl := fixture(t)
	sink := &spySink{}

	status := NewRunner().Run(context.Background(), opts, failingSource{}, s, sink, tbl, domain.DefaultDisposition)

	assert.Equal(t, ReasonSourceFailed, status.Reason)
	assert.Contains(t, status.Error, "bucket unreachable")
	assert.Zero(t, sink.calls)
}

func TestRun_SinkFailure(t *testing.T) {
	opts, s, tbl := fixture(t)
	sink := &spySink{err: &apperr.TableNotFoundError{Table: tbl.String()}}
	src := source.NewStatic([]domain.Record{{"id": 1, "message": "x"}})

	status := NewRunner().Run(context.Background(), opts, src, s, sink, tbl,
		domain.WriteDisposition{Create: domain.CreateNever, Write: domain.WriteAppend})

	assert.Equal(t, ReasonSinkFailed, status.Reason)
	var sf *apperr.SinkFailedError
	require.ErrorAs(t, status.Err, &sf)
	var nf *apperr.TableNotFoundError
	assert.ErrorAs(t, status.Err, &nf)
	assert.Nil(t, status.Result)
}

func TestRun_SinkTimeout(t *testing.T) {
	opts, s, tbl := fixture(t)
	sink := &spySink{err: &apperr.TimeoutError{Step: "write", Err: context.DeadlineExceeded}}
	src := source.NewStatic([]domain.Record{{"id": 1, "message": "x"}})

	status := NewRunner().Run(context.Background(), opts, src, s, sink, tbl, domain.DefaultDisposition)

	assert.Equal(t, StatusFailed, status.Status)
	assert.Equal(t, ReasonTimeout, status.Reason)
	var te *apperr.TimeoutError
	require.ErrorAs(t, status.Err, &te)
	assert.Equal(t, "write", te.Step)
}

func TestRun_EmptySourceCreatesTable(t *testing.T) {
	opts, s, tbl := fixture(t)
	backend := in_mem.NewBackend()

	status := NewRunner().Run(context.Background(), opts, source.NewStatic(nil), s, storage.NewSink(backend), tbl, domain.DefaultDisposition)

	require.True(t, status.Succeeded())
	assert.Equal(t, &domain.CommitResult{RowsWritten: 0, TableCreated: true}, status.Result)
}

func TestRun_UsesClock(t *testing.T) {
	opts, s, tbl := fixture(t)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	r := &Runner{now: func() time.Time {
		calls++
		return start.Add(time.Duration(calls) * time.Second)
	}}

	status := r.Run(context.Background(), opts, source.NewStatic(nil), s, &spySink{}, tbl, domain.DefaultDisposition)

	assert.Equal(t, time.Second, status.FinishedAt.Sub(status.StartedAt))
	assert.NotEqual(t, status.RunID.String(), "00000000-0000-0000-0000-000000000000")
}
