package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestSetupLogger(t *testing.T) {
	assert.NoError(t, setupLogger("debug", "json"))
	assert.NoError(t, setupLogger("WARN", "text"))
	assert.Error(t, setupLogger("verbose", "text"))
	assert.Error(t, setupLogger("info", "xml"))
}

func TestValidate_DefaultJob(t *testing.T) {
	out, err := execute(t, "validate")

	require.NoError(t, err)
	assert.Contains(t, out, "2 record(s) valid")
}

func TestValidate_InvalidRecords(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	job := filepath.Join(dir, "job.yaml")
	require.NoError(t, os.WriteFile(job, []byte(`
name: bad
table: raw.events
schema: "id:INTEGER,message:STRING"
records:
  - id: "not-a-number"
    message: ok
  - message: no id
`), 0o644))

	// Act
	out, err := execute(t, "validate", "--job", job)

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 2 record(s) invalid")
	assert.Contains(t, out, "record 0:")
	assert.Contains(t, out, "record 1:")
}

func TestRun_InMem(t *testing.T) {
	out, err := execute(t, "run", "--storage", "in_mem")

	require.NoError(t, err)
	var status map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, "SUCCESS", status["status"])
}
