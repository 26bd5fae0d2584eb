package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Runs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "table_ingest_runs_total",
		Help: "Total number of pipeline runs by terminal status and failure reason.",
	}, []string{"status", "reason"})

	RecordsInvalid = promauto.NewCounter(prometheus.CounterOpts{
		Name: "table_ingest_records_invalid_total",
		Help: "Total number of records rejected by schema validation.",
	})

	RowsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "table_ingest_rows_written_total",
		Help: "Total number of rows accepted by a sink backend.",
	}, []string{"backend"})

	RowsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "table_ingest_rows_rejected_total",
		Help: "Total number of rows refused by a sink backend.",
	}, []string{"backend"})

	TablesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "table_ingest_tables_created_total",
		Help: "Total number of tables created by commits.",
	}, []string{"backend"})

	StepTimeouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "table_ingest_step_timeouts_total",
		Help: "Total number of sink steps that exceeded their deadline.",
	}, []string{"backend", "step"})

	CommitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "table_ingest_commit_duration_seconds",
		Help:    "Duration of sink commits.",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "outcome"})
)
