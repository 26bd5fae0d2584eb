package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DjordjeVuckovic/table-ingest/internal/domain"
	"github.com/DjordjeVuckovic/table-ingest/internal/schema"
)

func TestJobLoader_Load(t *testing.T) {
	// Arrange
	reader := strings.NewReader(`
name: pubsub
table: "gcp-practice-project:raw_layer.dataflow_pub_sub"
schema: "id:INTEGER,message:STRING"
createDisposition: CREATE_IF_NEEDED
writeDisposition: WRITE_TRUNCATE
records:
  - id: 2501
    message: "Via GCS"
options:
  project: gcp-practice-project
  region: us-central1
  executionMode: direct
`)
	loader := NewJobLoader(reader)

	// Act
	job, err := loader.Load(true)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "pubsub", job.Name)
	assert.Len(t, job.Records, 1)
	assert.Equal(t, domain.ExecutionDirect, job.Options.ExecutionMode)

	def, err := job.Resolve("", domain.PipelineOptions{Region: "europe-west1", StagingLocation: "gs://tmp"})
	require.NoError(t, err)
	assert.Equal(t, domain.WriteDisposition{Create: domain.CreateIfNeeded, Write: domain.WriteTruncate}, def.Disposition)
	assert.Equal(t, "gcp-practice-project", def.Table.Project())
	assert.Equal(t, "us-central1", def.Options.Region)
	assert.Equal(t, "gs://tmp", def.Options.StagingLocation)
	assert.Equal(t, "pubsub", def.Options.JobName)

	records, err := def.Source.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Record{"id": 2501, "message": "Via GCS"}, records[0])
}

func TestJobLoader_FieldList(t *testing.T) {
	reader := strings.NewReader(`
name: typed
table: raw.events
mode: permissive
fields:
  - name: id
    type: int64
  - name: note
    type: string
    nullable: true
`)

	job, err := NewJobLoader(reader).Load(true)
	require.NoError(t, err)
	def, err := job.Resolve("", domain.PipelineOptions{})
	require.NoError(t, err)

	assert.Equal(t, schema.Permissive, def.Schema.Mode())
	f, ok := def.Schema.Field("note")
	require.True(t, ok)
	assert.True(t, f.Optional)
	assert.Equal(t, domain.DefaultDisposition, def.Disposition)
}

func TestJobLoader_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "unknown key", yaml: "name: x\ntable: a.b\nschema: id:INTEGER\nbogus: 1\n"},
		{name: "no table", yaml: "name: x\nschema: id:INTEGER\n"},
		{name: "no schema", yaml: "name: x\ntable: a.b\n"},
		{name: "both schema forms", yaml: "name: x\ntable: a.b\nschema: id:INTEGER\nfields:\n  - name: id\n    type: INTEGER\n"},
		{name: "bad type", yaml: "name: x\ntable: a.b\nschema: id:DECIMAL\n"},
		{name: "bad table", yaml: "name: x\ntable: nodataset\nschema: id:INTEGER\n"},
		{name: "bad disposition", yaml: "name: x\ntable: a.b\nschema: id:INTEGER\nwriteDisposition: UPSERT\n"},
		{name: "bad mode", yaml: "name: x\ntable: a.b\nschema: id:INTEGER\nmode: lenient\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJobLoader(strings.NewReader(tt.yaml)).Load(true)
			assert.Error(t, err)
		})
	}
}

func TestLoadJobFile_RecordsFileRelativeToJob(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rows.csv"), []byte("id,message\n1,hello\n"), 0o644))
	jobPath := filepath.Join(dir, "job.yaml")
	require.NoError(t, os.WriteFile(jobPath, []byte("name: csv\ntable: raw.events\nschema: id:INTEGER,message:STRING\nrecordsFile: rows.csv\n"), 0o644))

	job, baseDir, err := LoadJobFile(jobPath)
	require.NoError(t, err)
	def, err := job.Resolve(baseDir, domain.PipelineOptions{})
	require.NoError(t, err)

	records, err := def.Source.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	validated, err := def.Schema.Validate(records[0])
	require.NoError(t, err)
	assert.Equal(t, domain.ValidatedRecord{"id": int64(1), "message": "hello"}, validated)
}

func TestResolve_UnsupportedRecordsFile(t *testing.T) {
	job := &Job{Name: "x", Table: "a.b", Schema: "id:INTEGER", RecordsFile: "rows.parquet"}

	_, err := job.Resolve("", domain.PipelineOptions{})

	assert.ErrorContains(t, err, "unsupported records file")
}

func TestDefaultJob(t *testing.T) {
	job := DefaultJob()

	def, err := job.Resolve("", domain.PipelineOptions{})

	require.NoError(t, err)
	assert.Equal(t, "gcp-practice-project-aman:raw_layer.dataflow_pub_sub", def.Table.String())
	assert.Equal(t, domain.DefaultDisposition, def.Disposition)
	assert.Equal(t, []string{"id", "message"}, def.Schema.Names())
}

func TestLoadOptionsEnv(t *testing.T) {
	t.Setenv("PIPELINE_PROJECT", "p")
	t.Setenv("PIPELINE_REGION", "r")
	t.Setenv("PIPELINE_STAGING_LOCATION", "gs://s")
	t.Setenv("PIPELINE_EXECUTION_MODE", "dataflow")
	t.Setenv("PIPELINE_JOB_NAME", "j")

	opts := LoadOptionsEnv()

	assert.Equal(t, domain.PipelineOptions{
		Project: "p", Region: "r", StagingLocation: "gs://s",
		ExecutionMode: domain.ExecutionDataflow, JobName: "j",
	}, opts)
	assert.Equal(t, "q", MergeOptions(opts, domain.PipelineOptions{Project: "q"}).Project)
	assert.Equal(t, "r", MergeOptions(opts, domain.PipelineOptions{Project: "q"}).Region)
}

func TestSampleJobs(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "jobs", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			job, dir, err := LoadJobFile(path)
			require.NoError(t, err)

			def, err := job.Resolve(dir, domain.PipelineOptions{})
			require.NoError(t, err)

			records, err := def.Source.FetchAll(context.Background())
			require.NoError(t, err)
			_, errs := def.Schema.ValidateAll(records)
			assert.Empty(t, errs)
		})
	}
}
