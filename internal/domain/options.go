package domain

// ExecutionMode names the external runner a job is meant for. It is opaque to the core.
type ExecutionMode string

const (
	ExecutionDirect   ExecutionMode = "direct"
	ExecutionDataflow ExecutionMode = "dataflow"
)

// PipelineOptions are resolved run settings. The core only reads and reports them.
type PipelineOptions struct {
	Project         string        `json:"project" yaml:"project"`
	Region          string        `json:"region" yaml:"region"`
	StagingLocation string        `json:"stagingLocation" yaml:"stagingLocation"`
	ExecutionMode   ExecutionMode `json:"executionMode" yaml:"executionMode"`
	JobName         string        `json:"jobName" yaml:"jobName"`
}
