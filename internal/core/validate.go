package core

import "fmt"

// Span describes the filled part of a table's flattened cell sequence.
// First and Last are -1 when nothing is filled.
type Span struct {
	Length int
	First  int
	Last   int
	Filled int
}

func (s Span) String() string {
	return fmt.Sprintf("cells %d..%d of %d", s.First, s.Last, s.Length)
}

// Trim drops rows from the top of the table (highest RowIndex first) while
// they are entirely blank.
func Trim(rows []Row) []Row {
	for len(rows) > 0 && rows[0].Blank() {
		rows = rows[1:]
	}
	return rows
}

// Flatten concatenates the months of every row in row order.
func Flatten(rows []Row) []Cell {
	out := make([]Cell, 0, len(rows)*MonthsPerYear)
	for _, r := range rows {
		out = append(out, r.Cells[:]...)
	}
	return out
}

// SpanOf locates the first and last filled cell. Blank cells keep their position.
func SpanOf(cells []Cell) Span {
	s := Span{Length: len(cells), First: -1, Last: -1}
	for i, c := range cells {
		if c.Blank() {
			continue
		}
		if s.First < 0 {
			s.First = i
		}
		s.Last = i
		s.Filled++
	}
	return s
}

// Contiguous reports whether no blank cell lies strictly between the first
// and last filled cell.
func (s Span) Contiguous() bool {
	return s.Last-s.First+1 == s.Filled
}

// Validate checks every table of a filled grid. It returns the first failure:
// an empty table, then per table in id order a gap or a range that differs
// from the reference table.
func Validate(g Grid) error {
	spans := make(map[TableID]Span, len(g.Tables))
	for _, t := range g.Tables {
		rows := Trim(t.Rows)
		if len(rows) == 0 {
			return &EmptyTableError{Table: t.ID}
		}
		spans[t.ID] = SpanOf(Flatten(rows))
	}

	ref, hasRef := spans[ReferenceTable]
	for _, t := range g.Tables {
		span := spans[t.ID]
		if !span.Contiguous() {
			return &GapError{Table: t.ID, First: span.First, Last: span.Last, Filled: span.Filled}
		}
		if !hasRef {
			return &MissingReferenceError{}
		}
		if span.Length != ref.Length || span.First != ref.First || span.Last != ref.Last {
			return &RangeMismatchError{Table: t.ID, Span: span, Reference: ref}
		}
	}
	return nil
}

// ValidateAndCompute fills the grid with submitted values, validates it and,
// only when every table passes, attaches quarter and year results. On failure
// the filled grid is returned without any results.
func ValidateAndCompute(g Grid, sub Submission) (Grid, error) {
	filled := g.Fill(sub)
	if err := Validate(filled); err != nil {
		return filled, err
	}
	return Compute(filled), nil
}
