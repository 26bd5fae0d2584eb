package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type JobLoader struct {
	reader io.Reader
}

func NewJobLoader(reader io.Reader) *JobLoader {
	return &JobLoader{
		reader: reader,
	}
}

// Load decodes a single job document. Unknown keys are an error.
func (jl *JobLoader) Load(validate bool) (*Job, error) {
	decoder := yaml.NewDecoder(jl.reader)
	decoder.KnownFields(true)

	var job Job
	if err := decoder.Decode(&job); err != nil {
		return nil, fmt.Errorf("parse job YAML: %w", err)
	}
	if validate {
		if err := job.Validate(); err != nil {
			return nil, err
		}
	}
	return &job, nil
}

// LoadJobFile reads and validates a job file. The returned directory is where
// relative record files are resolved from.
func LoadJobFile(path string) (*Job, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("read job file: %w", err)
	}
	defer f.Close()

	job, err := NewJobLoader(f).Load(true)
	if err != nil {
		return nil, "", err
	}
	return job, filepath.Dir(path), nil
}
