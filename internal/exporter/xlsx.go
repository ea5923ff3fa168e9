package exporter

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"thumbdeck/internal/files"
)

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "Slides"

// WriteXLSX writes headers and records to a single-sheet workbook. Cells
// holding line breaks are wrapped.
func WriteXLSX(filePath string, headers []string, records [][]string) error {
	slog.Info("Writing XLSX file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(records)))

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	wrap, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	rows := append([][]string{headers}, records...)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	if len(headers) > 0 && len(rows) > 1 {
		last, err := excelize.CoordinatesToCellName(len(headers), len(rows))
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetName, "A2", last, wrap); err != nil {
			return fmt.Errorf("failed to style cells: %w", err)
		}
	}

	return files.WriteAtomic(filePath, func(w io.Writer) error {
		_, err := f.WriteTo(w)
		return err
	})
}
