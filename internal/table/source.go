package table

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	apperrors "thumbdeck/internal/errors"
	"thumbdeck/internal/thumbnail"
)

// Source yields the raw records of one table.
type Source interface {
	Load(ctx context.Context) ([]thumbnail.Record, error)
}

// Open picks a Source for path by its extension. sheet is only used for
// workbooks; empty selects the first sheet.
func Open(path, sheet string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return NewCSVSource(path), nil
	case ".xlsx", ".xlsm":
		return NewXLSXSource(path, sheet), nil
	default:
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("unsupported table format %q", filepath.Ext(path)), nil).
			WithContext(apperrors.ContextPath, path)
	}
}

// header maps column names to their position in a row.
type header map[string]int

func parseHeader(cells []string) (header, error) {
	h := make(header, len(cells))
	for i, c := range cells {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(c, "\ufeff")))
		if name == "" {
			continue
		}
		if _, dup := h[name]; dup {
			continue
		}
		h[name] = i
	}
	for _, col := range thumbnail.Columns {
		if _, ok := h[col]; !ok {
			return nil, apperrors.NewMissingFieldError(0, col).
				WithContext("header", strings.Join(cells, ","))
		}
	}
	return h, nil
}

// record builds a Record from one data row. Short rows yield blank cells.
func (h header) record(position int, cells []string) thumbnail.Record {
	rec := thumbnail.Record{
		Position: position,
		Cells:    make(map[string]string, len(thumbnail.Columns)),
	}
	for _, col := range thumbnail.Columns {
		if i := h[col]; i < len(cells) {
			rec.Cells[col] = cells[i]
		}
	}
	return rec
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
