// Package export renders a computed grid as an xlsx workbook.
package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"yeargrid/internal/core"
)

// ContentType is the MIME type of the produced workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrNotComputed is returned for grids that carry no results.
var ErrNotComputed = errors.New("grid has no computed results")

// SheetName returns the worksheet name used for a table.
func SheetName(id core.TableID) string {
	return fmt.Sprintf("Table %d", id)
}

// Filename suggests a download name for the grid.
func Filename(g core.Grid) string {
	return fmt.Sprintf("yeargrid-%d.xlsx", g.Year)
}

// WriteWorkbook writes one worksheet per table, oldest year first, with the
// 12 month values, the four quarter results and the year result.
func WriteWorkbook(w io.Writer, g core.Grid) error {
	if !g.Computed() {
		return ErrNotComputed
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E8EEF7"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	resultStyle, err := f.NewStyle(&excelize.Style{
		NumFmt: 2, // 0.00
		Font:   &excelize.Font{Italic: true},
	})
	if err != nil {
		return fmt.Errorf("create result style: %w", err)
	}

	for i, t := range g.Tables {
		name := SheetName(t.ID)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
		if err := writeTable(f, name, t, headerStyle, resultStyle); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeTable(f *excelize.File, sheet string, t core.Table, headerStyle, resultStyle int) error {
	header := core.Header()
	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return fmt.Errorf("write header on %s: %w", sheet, err)
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style header on %s: %w", sheet, err)
	}

	for ri, r := range t.Rows {
		line := ri + 2
		values := rowValues(r)
		start, _ := excelize.CoordinatesToCellName(1, line)
		if err := f.SetSheetRow(sheet, start, &values); err != nil {
			return fmt.Errorf("write row %d on %s: %w", r.Year, sheet, err)
		}
		for _, col := range resultColumns() {
			cell, _ := excelize.CoordinatesToCellName(col, line)
			if err := f.SetCellStyle(sheet, cell, cell, resultStyle); err != nil {
				return fmt.Errorf("style row %d on %s: %w", r.Year, sheet, err)
			}
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 8); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// rowValues lays a row out as Year, Jan, Feb, Mar, Q1, ... Q4, YTD.
func rowValues(r core.Row) []any {
	out := make([]any, 0, 18)
	out = append(out, r.Year)
	for q := 0; q < 4; q++ {
		for m := q * 3; m < q*3+3; m++ {
			c := r.Cells[m]
			if c.Blank() {
				out = append(out, nil)
			} else {
				out = append(out, core.Number(c.Raw))
			}
		}
		out = append(out, r.Quarters[q].Value)
	}
	return append(out, r.Total.Value)
}

// resultColumns returns the 1-based columns holding Q1..Q4 and YTD.
func resultColumns() []int {
	return []int{5, 9, 13, 17, 18}
}
