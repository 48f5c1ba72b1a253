package pipeline

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"paramsheet/internal"
)

// ExportRecordsToXLSX writes one header row with internal.Columns and one row
// per record. Every column is written for every row, empty when unset.
func ExportRecordsToXLSX(records []internal.Record, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, h := range internal.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, rec := range records {
		r := i + 2
		for col, value := range recordCells(rec) {
			cell, _ := excelize.CoordinatesToCellName(col+1, r)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

// recordCells follows the order of internal.Columns.
func recordCells(rec internal.Record) []any {
	return []any{
		rec.Name,
		rec.Address,
		editableCell(rec.Editable),
		rec.Description,
		derefFloat(rec.Scale),
		rec.ScaleB,
		rec.Unit,
		rec.Value,
		rec.ScaleValue,
		rec.ScaleFormat,
		string(rec.Type),
		groupCell(rec.Group),
		derefFloat(rec.Period),
		rec.Size,
		rec.Degree,
		rec.Code,
	}
}

func editableCell(v bool) any {
	if v {
		return 1
	}
	return ""
}

func groupCell(g string) any {
	if n, err := strconv.ParseInt(g, 10, 64); err == nil {
		return n
	}
	return g
}

func derefFloat(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
