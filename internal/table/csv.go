package table

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	apperrors "thumbdeck/internal/errors"
	"thumbdeck/internal/thumbnail"
)

// CSVSource reads a comma separated table.
type CSVSource struct {
	path string
}

// NewCSVSource creates a source for the CSV file at path.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// Load reads all records from the file.
func (s *CSVSource) Load(ctx context.Context) ([]thumbnail.Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open table", err).
			WithContext(apperrors.ContextPath, s.path)
	}
	defer f.Close()

	records, err := ReadCSV(ctx, f)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Loaded CSV table",
		slog.String("path", s.path),
		slog.Int("record_count", len(records)))
	return records, nil
}

// ReadCSV parses CSV content from r. Rows whose cells are all blank are
// skipped but still advance the row position.
func ReadCSV(ctx context.Context, r io.Reader) ([]thumbnail.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	first, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperrors.NewMissingFieldError(0, thumbnail.ColumnTitle).
			WithContext("reason", "empty table")
	}
	if err != nil {
		return nil, apperrors.NewMalformedInputError(0, "header", "", err)
	}
	h, err := parseHeader(first)
	if err != nil {
		return nil, err
	}

	var records []thumbnail.Record
	position := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		position++
		if err != nil {
			return nil, apperrors.NewMalformedInputError(position, "", "", fmt.Errorf("csv: %w", err))
		}
		if isBlankRow(cells) {
			continue
		}
		records = append(records, h.record(position, cells))
	}
	return records, nil
}
