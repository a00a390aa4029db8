// Package export serializes the forecast table to CSV and XLSX.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/theirongolddev/mfgdash/internal/model"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet that holds the export table.
const SheetName = "Forecast"

// DateLayout formats the Period column.
const DateLayout = "2006-01-02"

// Columns is the header row shared by every format.
var Columns = []string{"Period", "Actual", "Forecast", "Lower", "Upper"}

// WriteCSV writes rows with a header. Absent values are empty fields.
func WriteCSV(w io.Writer, rows []model.ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			r.Period.Format(DateLayout),
			formatOptional(r.Actual),
			formatOptional(r.Forecast),
			formatOptional(r.Lower),
			formatOptional(r.Upper),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes rows to a single-sheet workbook. Absent values are blank cells.
func WriteXLSX(w io.Writer, rows []model.ExportRow) error {
	f, err := buildWorkbook(rows)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func buildWorkbook(rows []model.ExportRow) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("creating header style: %w", err)
	}
	numFmt := "#,##0.00"
	num, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("creating number style: %w", err)
	}

	if err := writeSheet(f, SheetName, rows, bold, num); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

// writeSheet fills sheet with the header and rows, stopping at the first error.
func writeSheet(f *excelize.File, sheet string, rows []model.ExportRow, headerStyle, numStyle int) error {
	for i, h := range Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell %d: %w", i+1, err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("writing header %s: %w", h, err)
		}
	}
	if err := f.SetCellStyle(sheet, "A1", "E1", headerStyle); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", "A", 12); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}
	if err := f.SetColWidth(sheet, "B", "E", 16); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}

	for i, r := range rows {
		row := i + 2
		if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", row), r.Period.Format(DateLayout)); err != nil {
			return fmt.Errorf("writing row %d: %w", row, err)
		}
		for j, v := range []*float64{r.Actual, r.Forecast, r.Lower, r.Upper} {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+2, row)
			if err != nil {
				return fmt.Errorf("row %d: %w", row, err)
			}
			if err := f.SetCellValue(sheet, cell, *v); err != nil {
				return fmt.Errorf("writing %s: %w", cell, err)
			}
		}
	}
	if len(rows) > 0 {
		if err := f.SetCellStyle(sheet, "B2", fmt.Sprintf("E%d", len(rows)+1), numStyle); err != nil {
			return fmt.Errorf("styling values: %w", err)
		}
	}
	return nil
}

// Format names a serialization.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export extension %q (want .csv or .xlsx)", filepath.Ext(path))
	}
}

// Write serializes rows in the given format.
func Write(w io.Writer, format Format, rows []model.ExportRow) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, rows)
	case FormatXLSX:
		return WriteXLSX(w, rows)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// SaveFile writes rows to path in the format implied by its extension.
func SaveFile(path string, rows []model.ExportRow) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating export dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := Write(f, format, rows); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ContentType returns the MIME type for format.
func ContentType(format Format) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FileName is the default export file name for metric, e.g.
// "forecast-total-sales.xlsx".
func FileName(metric string, format Format) string {
	return fmt.Sprintf("forecast-%s.%s", Slug(metric), format)
}

// Slug turns a column name into a file-name-safe lowercase token.
func Slug(s string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash && b.Len() > 0:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
