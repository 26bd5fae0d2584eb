package source

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DjordjeVuckovic/table-ingest/internal/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestStatic_IsRestartableAndIsolated(t *testing.T) {
	// Arrange
	input := []domain.Record{{"id": 2501, "message": "Via GCS"}, {"id": 2601, "message": "Awesome"}}
	src := NewStatic(input)
	input[0]["id"] = 0

	// Act
	first, err := src.FetchAll(context.Background())
	require.NoError(t, err)
	first[1]["message"] = "mutated"
	second, err := src.FetchAll(context.Background())
	require.NoError(t, err)

	// Assert
	assert.Equal(t, 2501, second[0]["id"])
	assert.Equal(t, "Awesome", second[1]["message"])
	assert.Len(t, second, 2)
}

func TestStatic_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStatic(nil).FetchAll(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestJSONFile_FetchAll(t *testing.T) {
	path := writeFile(t, "records.json", `[{"id": 9007199254740993, "message": "big"}, {"id": 2, "message": "small"}]`)
	src := NewJSONFile(path)

	first, err := src.FetchAll(context.Background())
	require.NoError(t, err)
	second, err := src.FetchAll(context.Background())
	require.NoError(t, err)

	require.Len(t, first, 2)
	assert.Equal(t, json.Number("9007199254740993"), first[0]["id"])
	assert.Equal(t, first, second)
}

func TestJSONFile_Errors(t *testing.T) {
	_, err := NewJSONFile(filepath.Join(t.TempDir(), "missing.json")).FetchAll(context.Background())
	assert.Error(t, err)

	path := writeFile(t, "bad.json", `{"id": 1}`)
	_, err = NewJSONFile(path).FetchAll(context.Background())
	assert.Error(t, err)
}

func TestCSVFile_FetchAll(t *testing.T) {
	path := writeFile(t, "records.csv", "id,message,note\n2501,Via GCS,\n2601,Awesome,hi\n")

	records, err := NewCSVFile(path).FetchAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []domain.Record{
		{"id": "2501", "message": "Via GCS"},
		{"id": "2601", "message": "Awesome", "note": "hi"},
	}, records)
}

func TestCSVFile_EmptyFile(t *testing.T) {
	path := writeFile(t, "empty.csv", "")

	_, err := NewCSVFile(path).FetchAll(context.Background())

	assert.Error(t, err)
}
