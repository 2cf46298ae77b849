// Package spreadsheet renders screened records into an xlsx workbook.
//
// The first row holds the union of field names in first-seen order. Records
// follow one per row. When at least one column holds only numbers, a trailing
// "Total" row carries a SUM formula for each such column.
package spreadsheet

import (
	"fmt"
	"io"

	"github.com/nssuwan186-dev/fullstack-platform/internal/policy"
	"github.com/xuri/excelize/v2"
)

const (
	// SheetName is the name of the single data sheet.
	SheetName = "Data"
	// TotalLabel is written in the first column of the summary row.
	TotalLabel = "Total"
)

// Renderer writes workbooks.
type Renderer struct{}

// NewRenderer returns a Renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Columns returns the union of field names across records in first-seen order.
func Columns(records []policy.CleanRecord) []string {
	seen := make(map[string]struct{})
	var cols []string
	for _, rec := range records {
		for _, f := range rec.Fields {
			if _, ok := seen[f.Name]; ok {
				continue
			}
			seen[f.Name] = struct{}{}
			cols = append(cols, f.Name)
		}
	}
	return cols
}

// Render encodes records as a workbook and writes it to w.
func (r *Renderer) Render(w io.Writer, records []policy.CleanRecord) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close workbook: %w", cerr)
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	cols := Columns(records)
	index := make(map[string]int, len(cols))
	for i, name := range cols {
		index[name] = i + 1
		if err := setCell(f, i+1, 1, name); err != nil {
			return err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if len(cols) > 0 {
		if err := f.SetRowStyle(SheetName, 1, 1, headerStyle); err != nil {
			return fmt.Errorf("failed to style header: %w", err)
		}
	}

	// numeric[col] stays true while every value seen in that column is a number.
	numeric := make([]bool, len(cols)+1)
	for i := range numeric {
		numeric[i] = true
	}
	hasValue := make([]bool, len(cols)+1)

	for i, rec := range records {
		row := i + 2
		for _, field := range rec.Fields {
			col := index[field.Name]
			if field.Value.Kind() == policy.KindNull {
				continue
			}
			hasValue[col] = true
			if field.Value.Kind() != policy.KindNumber {
				numeric[col] = false
			}
			if err := setCell(f, col, row, field.Value.Interface()); err != nil {
				return err
			}
		}
	}

	if len(records) > 0 {
		if err := writeTotals(f, cols, numeric, hasValue, len(records)); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to encode workbook: %w", err)
	}
	return nil
}

func writeTotals(f *excelize.File, cols []string, numeric, hasValue []bool, rows int) error {
	totalRow := rows + 2
	wrote := false
	for col := 1; col <= len(cols); col++ {
		if !numeric[col] || !hasValue[col] {
			continue
		}
		// The label lives in column A, so a numeric first column gets no sum.
		if col == 1 {
			continue
		}
		letter, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return fmt.Errorf("failed to resolve column %d: %w", col, err)
		}
		cell, err := excelize.CoordinatesToCellName(col, totalRow)
		if err != nil {
			return fmt.Errorf("failed to resolve total cell: %w", err)
		}
		formula := fmt.Sprintf("SUM(%s2:%s%d)", letter, letter, totalRow-1)
		if err := f.SetCellFormula(SheetName, cell, formula); err != nil {
			return fmt.Errorf("failed to write total formula: %w", err)
		}
		wrote = true
	}
	if !wrote {
		return nil
	}
	return setCell(f, 1, totalRow, TotalLabel)
}

func setCell(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("failed to resolve cell: %w", err)
	}
	if err := f.SetCellValue(SheetName, cell, value); err != nil {
		return fmt.Errorf("failed to write cell %s: %w", cell, err)
	}
	return nil
}
