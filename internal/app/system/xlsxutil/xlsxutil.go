// internal/app/system/xlsxutil/xlsxutil.go
// Package xlsxutil renders the same column projections used for CSV exports
// into a single-sheet Excel workbook.
package xlsxutil

import (
	"fmt"

	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/csvutil"
	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the workbook returned by Encode.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Encode writes a bold header row and one row per item onto sheet and returns
// the serialized workbook. Null cells are left empty; numbers and booleans keep
// their native cell types.
func Encode[T any](sheet string, cols []csvutil.Column[T], rows []T) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	for i, c := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, c.Header); err != nil {
			return nil, fmt.Errorf("xlsx header %s: %w", c.Header, err)
		}
	}

	for r, row := range rows {
		for i, c := range cols {
			v := cellValue(c.Value(row))
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("xlsx cell %s: %w", cell, err)
			}
		}
	}

	if len(cols) > 0 {
		last, _ := excelize.ColumnNumberToName(len(cols))
		header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return nil, fmt.Errorf("xlsx header style: %w", err)
		}
		if err := f.SetCellStyle(sheet, "A1", last+"1", header); err != nil {
			return nil, fmt.Errorf("xlsx header style: %w", err)
		}
		if err := f.SetColWidth(sheet, "A", last, 18); err != nil {
			return nil, fmt.Errorf("xlsx column width: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// cellValue dereferences pointer cells; nil means leave the cell empty.
func cellValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case *float64:
		if x == nil {
			return nil
		}
		return *x
	case *int:
		if x == nil {
			return nil
		}
		return *x
	case *bool:
		if x == nil {
			return nil
		}
		return *x
	case string, float64, int, int64, bool:
		return x
	default:
		return csvutil.Format(x)
	}
}
