// Package sheets defines the outbound ports for computed grid results.
package sheets

import (
	"context"
	"time"

	"yeargrid/internal/core"
)

// Ports for outbound adapters.
type (
	// Batch is the set of rows produced by one accepted submission.
	Batch struct {
		ID        string
		SessionID string
		Rows      []core.YearSummary
		CreatedAt time.Time
	}

	// ResultWriter appends computed rows to an external sheet.
	ResultWriter interface {
		// AppendResults writes every row of the batch and returns a reference to
		// the written range.
		AppendResults(ctx context.Context, b Batch) (ref string, err error)
	}
)

// ColumnHeader is the first row of a result sheet.
func ColumnHeader() []string {
	return append([]string{"Batch", "Session", "Created", "Table"}, core.Header()...)
}

// RowValues flattens one summary into sheet cells, aligned with ColumnHeader.
// Month cells are written as numbers when they parse, blank cells stay empty.
func RowValues(b Batch, s core.YearSummary) []any {
	out := make([]any, 0, len(ColumnHeader()))
	out = append(out, b.ID, b.SessionID, b.CreatedAt.UTC().Format(time.RFC3339), int(s.Table), s.Year)
	for q := 0; q < 4; q++ {
		for m := q * 3; m < q*3+3; m++ {
			out = append(out, monthValue(s.Months[m]))
		}
		out = append(out, s.Quarters[q])
	}
	return append(out, s.Total)
}

func monthValue(raw string) any {
	c := core.Cell{Raw: raw}
	if c.Blank() {
		return ""
	}
	return core.Number(raw)
}
