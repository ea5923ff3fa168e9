package table

import (
	"context"
	"log/slog"

	"github.com/xuri/excelize/v2"

	apperrors "thumbdeck/internal/errors"
	"thumbdeck/internal/thumbnail"
)

// XLSXSource reads one sheet of an Excel workbook.
type XLSXSource struct {
	path  string
	sheet string
}

// NewXLSXSource creates a source for the workbook at path.
func NewXLSXSource(path, sheet string) *XLSXSource {
	return &XLSXSource{path: path, sheet: sheet}
}

// Load reads all records from the selected sheet.
func (s *XLSXSource) Load(ctx context.Context) ([]thumbnail.Record, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open workbook", err).
			WithContext(apperrors.ContextPath, s.path)
	}
	defer f.Close()

	sheet := s.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read sheet", err).
			WithContext(apperrors.ContextPath, s.path).
			WithContext("sheet", sheet)
	}

	records, err := readRows(ctx, rows)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Loaded workbook table",
		slog.String("path", s.path),
		slog.String("sheet", sheet),
		slog.Int("record_count", len(records)))
	return records, nil
}

func readRows(ctx context.Context, rows [][]string) ([]thumbnail.Record, error) {
	if len(rows) == 0 {
		return nil, apperrors.NewMissingFieldError(0, thumbnail.ColumnTitle).
			WithContext("reason", "empty table")
	}
	h, err := parseHeader(rows[0])
	if err != nil {
		return nil, err
	}

	var records []thumbnail.Record
	for i, cells := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if isBlankRow(cells) {
			continue
		}
		records = append(records, h.record(i+1, cells))
	}
	return records, nil
}
