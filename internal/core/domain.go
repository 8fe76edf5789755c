package core

import (
	"errors"
	"fmt"
	"strings"
)

const (
	Jan Month = iota + 1
	Feb
	Mar
	Apr
	May
	Jun
	Jul
	Aug
	Sep
	Oct
	Nov
	Dec
)

// MonthsPerYear is the number of input cells in a row.
const MonthsPerYear = 12

// ReferenceTable is the table every other table is compared against.
const ReferenceTable TableID = 1

type (
	// TableID identifies one yearly table within a session. Ids start at 1.
	TableID int

	// Month is a calendar month, Jan = 1.
	Month int

	// Quarter is one of four fixed groups of three consecutive months, 1-4.
	Quarter int

	// Cell is a single numeric input. Raw keeps the submitted text as-is.
	Cell struct {
		Month Month
		Raw   string
	}

	// Result is a computed display value. Set is false until aggregation runs.
	Result struct {
		Value float64
		Set   bool
	}

	// Row holds the 12 month cells for a RowIndex plus computed slots.
	Row struct {
		Index    int
		Year     int
		Cells    [MonthsPerYear]Cell
		Quarters [4]Result
		Total    Result
	}

	// Table is an ordered sequence of rows, highest RowIndex (oldest year) first.
	Table struct {
		ID     TableID
		Rows   []Row
		AddRow Command
	}

	// Grid is the full logical projection of a State.
	Grid struct {
		Year   int
		Tables []Table
	}

	// SubmittedRow holds raw month values, index 0 is Jan.
	SubmittedRow [MonthsPerYear]string

	// Submission maps TableID -> RowIndex -> month values.
	Submission map[TableID]map[int]SubmittedRow

	// YearSummary is one computed row flattened for export.
	YearSummary struct {
		Table    TableID               `json:"table"`
		Year     int                   `json:"year"`
		Months   [MonthsPerYear]string `json:"months"`
		Quarters [4]float64            `json:"quarters"`
		Total    float64               `json:"total"`
	}
)

var monthNames = [MonthsPerYear]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

var (
	ErrUnknownTable      = errors.New("unknown table")
	ErrInvalidSubmission = errors.New("invalid submission")
	ErrInvalidState      = errors.New("invalid state")
	ErrInvalidMonth      = errors.New("invalid month")
)

// Months returns Jan..Dec in order.
func Months() [MonthsPerYear]Month {
	var out [MonthsPerYear]Month
	for i := range out {
		out[i] = Month(i + 1)
	}
	return out
}

func (m Month) String() string {
	if m < Jan || m > Dec {
		return fmt.Sprintf("Month(%d)", int(m))
	}
	return monthNames[m-1]
}

// Quarter returns the quarter the month belongs to.
func (m Month) Quarter() Quarter {
	return Quarter((int(m)-1)/3 + 1)
}

// ParseMonth accepts the three-letter English abbreviation, case-insensitive.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	for i, name := range monthNames {
		if strings.EqualFold(name, s) {
			return Month(i + 1), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
}

// Months returns the three months of the quarter.
func (q Quarter) Months() [3]Month {
	first := Month((int(q)-1)*3 + 1)
	return [3]Month{first, first + 1, first + 2}
}

func (q Quarter) String() string {
	return fmt.Sprintf("Q%d", int(q))
}

// Blank reports whether the cell has no value. Whitespace counts as blank.
func (c Cell) Blank() bool {
	return strings.TrimSpace(c.Raw) == ""
}

// Blank reports whether every cell in the row is blank.
func (r Row) Blank() bool {
	for _, c := range r.Cells {
		if !c.Blank() {
			return false
		}
	}
	return true
}

// Header returns the column labels used when a table is shown or exported.
func Header() []string {
	out := make([]string, 0, 18)
	out = append(out, "Year")
	for q := Quarter(1); q <= 4; q++ {
		for _, m := range q.Months() {
			out = append(out, m.String())
		}
		out = append(out, q.String())
	}
	return append(out, "YTD")
}
