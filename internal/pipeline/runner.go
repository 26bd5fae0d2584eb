package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/DjordjeVuckovic/table-ingest/internal/apperr"
	"github.com/DjordjeVuckovic/table-ingest/internal/domain"
	"github.com/DjordjeVuckovic/table-ingest/internal/metrics"
	"github.com/DjordjeVuckovic/table-ingest/internal/schema"
	"github.com/DjordjeVuckovic/table-ingest/internal/source"
	"github.com/DjordjeVuckovic/table-ingest/internal/storage"
)

// Runner executes fetch, validate and commit in that order. It is stateless and
// safe to share.
type Runner struct {
	now func() time.Time
}

func NewRunner() *Runner {
	return &Runner{now: time.Now}
}

// Run never returns a Go error. Every failure is reported in the returned status.
// No sink call is made unless every record validates.
func (r *Runner) Run(
	ctx context.Context,
	opts domain.PipelineOptions,
	src source.RecordSource,
	sch *schema.Schema,
	sink storage.TableSink,
	table domain.TableSpec,
	d domain.WriteDisposition,
) RunStatus {
	status := RunStatus{
		RunID:     uuid.New(),
		Table:     table.String(),
		Options:   opts,
		StartedAt: r.now(),
	}
	log := slog.With(
		"run_id", status.RunID.String(),
		"job", opts.JobName,
		"table", table.String(),
	)
	log.Info("Pipeline run started",
		"project", opts.Project,
		"region", opts.Region,
		"execution_mode", opts.ExecutionMode,
		"staging_location", opts.StagingLocation,
		"disposition", d.String(),
	)

	r.run(ctx, log, &status, src, sch, sink, table, d)

	status.FinishedAt = r.now()
	metrics.Runs.WithLabelValues(string(status.Status), string(status.Reason)).Inc()
	if status.Succeeded() {
		log.Info("Pipeline run succeeded",
			"records", status.Records,
			"rows_written", status.Result.RowsWritten,
			"table_created", status.Result.TableCreated,
			"duration", status.FinishedAt.Sub(status.StartedAt),
		)
	} else {
		log.Error("Pipeline run failed",
			"reason", status.Reason,
			"error", status.Err,
			"duration", status.FinishedAt.Sub(status.StartedAt),
		)
	}
	return status
}

func (r *Runner) run(
	ctx context.Context,
	log *slog.Logger,
	status *RunStatus,
	src source.RecordSource,
	sch *schema.Schema,
	sink storage.TableSink,
	table domain.TableSpec,
	d domain.WriteDisposition,
) {
	records, err := src.FetchAll(ctx)
	if err != nil {
		status.fail(ReasonSourceFailed, &apperr.SourceFailedError{Cause: err})
		return
	}
	status.Records = len(records)
	log.Debug("Records fetched", "count", len(records))

	rows, errs := sch.ValidateAll(records)
	if len(errs) > 0 {
		metrics.RecordsInvalid.Add(float64(len(errs)))
		status.fail(ReasonValidationFailed, &apperr.ValidationFailedError{Errors: errs})
		return
	}

	res, err := sink.Commit(ctx, table, sch, rows, d)
	if err != nil {
		reason := ReasonSinkFailed
		var te *apperr.TimeoutError
		if errors.As(err, &te) {
			reason = ReasonTimeout
		}
		status.fail(reason, &apperr.SinkFailedError{Cause: err})
		return
	}
	status.succeed(res)
}
