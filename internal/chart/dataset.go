package chart

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"finchat-backend/internal/models"
)

// ColumnType is the inferred type of a dataset column.
type ColumnType string

const (
	ColumnNumber ColumnType = "number"
	ColumnText   ColumnType = "text"
)

// Dataset is a loaded tabular file: header, typed columns, string-valued
// rows. Values are kept as strings and converted on demand so text and
// number columns share one representation.
type Dataset struct {
	Columns []string
	Types   map[string]ColumnType
	Rows    [][]string

	colIndex map[string]int
}

// LoadDataset dispatches on file extension.
func LoadDataset(filename string, r io.Reader) (*Dataset, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return LoadCSV(r)
	case ".xlsx":
		return LoadXLSX(r)
	default:
		return nil, models.NewInputError("dataset.load", "unsupported dataset format: "+filepath.Ext(filename))
	}
}

// LoadCSV reads a CSV with a header row.
func LoadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, models.NewInputError("dataset.load", fmt.Sprintf("invalid CSV: %v", err))
	}
	return newDataset(records)
}

// LoadXLSX reads the first sheet of an XLSX workbook.
func LoadXLSX(r io.Reader) (*Dataset, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, models.NewInputError("dataset.load", fmt.Sprintf("invalid XLSX: %v", err))
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, models.NewInputError("dataset.load", "workbook has no sheets")
	}

	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, models.NewInputError("dataset.load", fmt.Sprintf("failed to read sheet %s: %v", sheets[0], err))
	}
	return newDataset(rows)
}

func newDataset(records [][]string) (*Dataset, error) {
	if len(records) < 2 {
		return nil, models.NewInputError("dataset.load", "dataset needs a header row and at least one data row")
	}

	columns := make([]string, len(records[0]))
	colIndex := make(map[string]int, len(columns))
	for i, name := range records[0] {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		columns[i] = name
		colIndex[name] = i
	}

	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		// XLSX rows can come back ragged; pad to header width.
		row := make([]string, len(columns))
		for i := range row {
			if i < len(rec) {
				row[i] = strings.TrimSpace(rec[i])
			}
		}
		rows = append(rows, row)
	}

	ds := &Dataset{
		Columns:  columns,
		Rows:     rows,
		colIndex: colIndex,
	}
	ds.Types = inferTypes(ds)
	return ds, nil
}

// inferTypes marks a column numeric when every non-empty cell parses as a
// number.
func inferTypes(ds *Dataset) map[string]ColumnType {
	types := make(map[string]ColumnType, len(ds.Columns))
	for i, col := range ds.Columns {
		kind := ColumnText
		sawValue := false
		numeric := true
		for _, row := range ds.Rows {
			cell := row[i]
			if cell == "" {
				continue
			}
			sawValue = true
			if _, err := parseNumber(cell); err != nil {
				numeric = false
				break
			}
		}
		if sawValue && numeric {
			kind = ColumnNumber
		}
		types[col] = kind
	}
	return types
}

// HasColumn reports whether name is a dataset column.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.colIndex[name]
	return ok
}

// Value returns the cell for a column in a row.
func (d *Dataset) Value(row []string, column string) string {
	idx, ok := d.colIndex[column]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// Number parses the cell for a numeric column. Empty cells are zero.
func (d *Dataset) Number(row []string, column string) (float64, error) {
	cell := d.Value(row, column)
	if cell == "" {
		return 0, nil
	}
	return parseNumber(cell)
}

// SampleRows returns up to n leading rows for LLM prompts.
func (d *Dataset) SampleRows(n int) [][]string {
	if n > len(d.Rows) {
		n = len(d.Rows)
	}
	return d.Rows[:n]
}

// Describe renders the schema and sample rows for LLM prompts.
func (d *Dataset) Describe(sampleRows int) string {
	var b strings.Builder
	b.WriteString("Columns:\n")
	for _, col := range d.Columns {
		fmt.Fprintf(&b, "- %s (%s)\n", col, d.Types[col])
	}
	b.WriteString("Sample rows:\n")
	b.WriteString(strings.Join(d.Columns, ", "))
	b.WriteString("\n")
	for _, row := range d.SampleRows(sampleRows) {
		b.WriteString(strings.Join(row, ", "))
		b.WriteString("\n")
	}
	return b.String()
}

// parseNumber accepts plain floats plus common financial formatting
// (thousands separators, currency symbols, percent signs).
func parseNumber(s string) (float64, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.TrimSuffix(cleaned, "%")
	return strconv.ParseFloat(cleaned, 64)
}
