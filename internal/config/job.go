package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/DjordjeVuckovic/table-ingest/internal/domain"
	"github.com/DjordjeVuckovic/table-ingest/internal/schema"
	"github.com/DjordjeVuckovic/table-ingest/internal/source"
)

// FieldDef declares one column of a job schema.
type FieldDef struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	Nullable bool   `json:"nullable,omitempty" yaml:"nullable,omitempty"`
}

// Job is a pipeline definition as written in a job file or posted to the API.
// The schema is given either as a compact string ("id:INTEGER,message:STRING")
// or as a list of fields.
type Job struct {
	Name              string                 `json:"name" yaml:"name"`
	Table             string                 `json:"table" yaml:"table"`
	Schema            string                 `json:"schema,omitempty" yaml:"schema,omitempty"`
	Fields            []FieldDef             `json:"fields,omitempty" yaml:"fields,omitempty"`
	Mode              string                 `json:"mode,omitempty" yaml:"mode,omitempty"`
	CreateDisposition string                 `json:"createDisposition,omitempty" yaml:"createDisposition,omitempty"`
	WriteDisposition  string                 `json:"writeDisposition,omitempty" yaml:"writeDisposition,omitempty"`
	Records           []map[string]any       `json:"records,omitempty" yaml:"records,omitempty"`
	RecordsFile       string                 `json:"recordsFile,omitempty" yaml:"recordsFile,omitempty"`
	Options           domain.PipelineOptions `json:"options" yaml:"options"`
}

// Definition is a Job resolved into the values a pipeline run takes.
type Definition struct {
	Name        string
	Options     domain.PipelineOptions
	Schema      *schema.Schema
	Table       domain.TableSpec
	Disposition domain.WriteDisposition
	Source      source.RecordSource
}

// DefaultJob writes two sample messages into raw_layer.dataflow_pub_sub.
func DefaultJob() *Job {
	return &Job{
		Name:              "write-to-bq-via-template",
		Table:             "gcp-practice-project-aman:raw_layer.dataflow_pub_sub",
		Schema:            "id:INTEGER,message:STRING",
		CreateDisposition: string(domain.CreateIfNeeded),
		WriteDisposition:  "WRITE_APPEND",
		Records: []map[string]any{
			{"id": 2501, "message": "Via GCS"},
			{"id": 2601, "message": "Awesome"},
		},
		Options: domain.PipelineOptions{
			Project:         "gcp-practice-project-aman",
			Region:          "us-central1",
			StagingLocation: "gs://dataflow-bucket-gcp-practice-project-aman/temp",
			ExecutionMode:   domain.ExecutionDataflow,
			JobName:         "write-to-bq-via-template",
		},
	}
}

// Validate checks the job is complete without reading any records.
func (j *Job) Validate() error {
	if j.Table == "" {
		return fmt.Errorf("job %q has no table", j.Name)
	}
	if j.Schema == "" && len(j.Fields) == 0 {
		return fmt.Errorf("job %q has no schema", j.Name)
	}
	if j.Schema != "" && len(j.Fields) > 0 {
		return fmt.Errorf("job %q sets both schema and fields", j.Name)
	}
	if len(j.Records) > 0 && j.RecordsFile != "" {
		return fmt.Errorf("job %q sets both records and recordsFile", j.Name)
	}
	if _, err := j.buildSchema(); err != nil {
		return err
	}
	if _, err := domain.ParseTableSpec(j.Table); err != nil {
		return err
	}
	if _, err := j.disposition(); err != nil {
		return err
	}
	return nil
}

// Resolve builds the run definition. Relative record files are looked up in baseDir.
// Options left empty in the job are taken from defaults.
func (j *Job) Resolve(baseDir string, defaults domain.PipelineOptions) (*Definition, error) {
	if err := j.Validate(); err != nil {
		return nil, err
	}
	sch, err := j.buildSchema()
	if err != nil {
		return nil, err
	}
	table, err := domain.ParseTableSpec(j.Table)
	if err != nil {
		return nil, err
	}
	d, err := j.disposition()
	if err != nil {
		return nil, err
	}
	src, err := j.source(baseDir)
	if err != nil {
		return nil, err
	}

	opts := MergeOptions(defaults, j.Options)
	if opts.JobName == "" {
		opts.JobName = j.Name
	}
	return &Definition{
		Name:        j.Name,
		Options:     opts,
		Schema:      sch,
		Table:       table,
		Disposition: d,
		Source:      src,
	}, nil
}

func (j *Job) buildSchema() (*schema.Schema, error) {
	var opts []schema.Option
	if j.Mode != "" {
		mode, err := schema.ParseMode(j.Mode)
		if err != nil {
			return nil, err
		}
		opts = append(opts, schema.WithMode(mode))
	}
	if j.Schema != "" {
		return schema.Parse(j.Schema, opts...)
	}

	fields := make([]schema.Field, 0, len(j.Fields))
	for _, fd := range j.Fields {
		ft, err := schema.ParseFieldType(fd.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", fd.Name, err)
		}
		fields = append(fields, schema.Field{Name: fd.Name, Type: ft, Optional: fd.Nullable})
	}
	return schema.New(fields, opts...)
}

func (j *Job) disposition() (domain.WriteDisposition, error) {
	return domain.ParseDisposition(j.CreateDisposition, j.WriteDisposition)
}

func (j *Job) source(baseDir string) (source.RecordSource, error) {
	if j.RecordsFile == "" {
		records := make([]domain.Record, len(j.Records))
		for i, r := range j.Records {
			records[i] = domain.Record(r)
		}
		return source.NewStatic(records), nil
	}

	path := j.RecordsFile
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return source.NewJSONFile(path), nil
	case ".csv":
		return source.NewCSVFile(path), nil
	default:
		return nil, fmt.Errorf("unsupported records file %q: expected .json or .csv", j.RecordsFile)
	}
}
