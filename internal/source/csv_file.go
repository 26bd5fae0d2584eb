package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/DjordjeVuckovic/table-ingest/internal/domain"
)

// CSVFile reads a CSV file with a header row. Values stay strings; the schema
// coerces them. Empty cells become absent fields so optional columns work.
type CSVFile struct {
	path string
}

func NewCSVFile(path string) *CSVFile {
	return &CSVFile{path: path}
}

func (s *CSVFile) FetchAll(ctx context.Context) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open csv source: %w", err)
	}
	defer file.Close()

	records, err := readCSV(file)
	if err != nil {
		return nil, fmt.Errorf("read csv source %s: %w", s.path, err)
	}
	slog.Debug("csv source loaded", "path", s.path, "records", len(records))
	return records, nil
}

func readCSV(r io.Reader) ([]domain.Record, error) {
	csvReader := csv.NewReader(r)

	headers, err := csvReader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("missing header row")
		}
		return nil, err
	}

	var records []domain.Record
	for {
		row, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		record := make(domain.Record, len(headers))
		for i, h := range headers {
			if row[i] == "" {
				continue
			}
			record[h] = row[i]
		}
		records = append(records, record)
	}

	return records, nil
}
