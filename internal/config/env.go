package config

import (
	"os"

	"github.com/DjordjeVuckovic/table-ingest/internal/domain"
)

// LoadOptionsEnv reads pipeline options from PIPELINE_* variables.
func LoadOptionsEnv() domain.PipelineOptions {
	return domain.PipelineOptions{
		Project:         os.Getenv("PIPELINE_PROJECT"),
		Region:          os.Getenv("PIPELINE_REGION"),
		StagingLocation: os.Getenv("PIPELINE_STAGING_LOCATION"),
		ExecutionMode:   domain.ExecutionMode(os.Getenv("PIPELINE_EXECUTION_MODE")),
		JobName:         os.Getenv("PIPELINE_JOB_NAME"),
	}
}

// MergeOptions returns base with every non-empty field of override applied.
func MergeOptions(base, override domain.PipelineOptions) domain.PipelineOptions {
	if override.Project != "" {
		base.Project = override.Project
	}
	if override.Region != "" {
		base.Region = override.Region
	}
	if override.StagingLocation != "" {
		base.StagingLocation = override.StagingLocation
	}
	if override.ExecutionMode != "" {
		base.ExecutionMode = override.ExecutionMode
	}
	if override.JobName != "" {
		base.JobName = override.JobName
	}
	return base
}
