package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"yeargrid/internal/core"
)

func computedGrid(t *testing.T) core.Grid {
	t.Helper()
	st, err := core.NewState(map[core.TableID]int{1: 2, 2: 2})
	require.NoError(t, err)

	g, err := core.ValidateAndCompute(core.BuildGrid(st, 2024), core.Submission{
		1: {2: {"2", "2", "2"}},
		2: {2: {"1", "", "3"}},
	})
	if err == nil {
		t.Fatal("expected gap in table 2")
	}

	g, err = core.ValidateAndCompute(core.BuildGrid(st, 2024), core.Submission{
		1: {2: {"2", "2", "2"}},
		2: {2: {"1", "0", "3"}},
	})
	require.NoError(t, err)
	return g
}

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, computedGrid(t)))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Table 1", "Table 2"}, f.GetSheetList())

	rows, err := f.GetRows("Table 1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, core.Header(), rows[0])
	assert.Equal(t, "2023", rows[1][0])
	assert.Equal(t, "2", rows[1][1])

	q1, err := f.GetCellValue("Table 1", "E2")
	require.NoError(t, err)
	assert.Equal(t, "2.33", q1)

	ytd, err := f.GetCellValue("Table 1", "R2")
	require.NoError(t, err)
	assert.Equal(t, "0.83", ytd)

	current, err := f.GetCellValue("Table 1", "A3")
	require.NoError(t, err)
	assert.Equal(t, "2024", current)
}

func TestWriteWorkbookRequiresResults(t *testing.T) {
	g := core.BuildGrid(core.InitialState(), 2024)
	assert.ErrorIs(t, WriteWorkbook(&bytes.Buffer{}, g), ErrNotComputed)
}

func TestRowValuesLayout(t *testing.T) {
	r := core.ComputeRow(core.Row{Year: 2024})
	r.Cells[core.Apr-1].Raw = "4"

	values := rowValues(r)
	require.Len(t, values, len(core.Header()))
	assert.Equal(t, 2024, values[0])
	assert.Nil(t, values[1])
	assert.Equal(t, 4.0, values[5])
	for _, col := range resultColumns() {
		assert.IsType(t, float64(0), values[col-1])
	}
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "yeargrid-2024.xlsx", Filename(core.Grid{Year: 2024}))
}
