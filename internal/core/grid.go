package core

// BuildGrid derives the editable grid from a state. Rows run from RowCount
// down to 1; row i is labelled currentYear-i+1, so row 1 is always the
// current year and the newest row is the oldest year.
func BuildGrid(s State, currentYear int) Grid {
	g := Grid{Year: currentYear, Tables: make([]Table, 0, len(s.tables))}
	for _, ts := range s.tables {
		t := Table{
			ID:     ts.ID,
			Rows:   make([]Row, 0, ts.Rows),
			AddRow: Command{Kind: CommandAddRow, Table: ts.ID},
		}
		for i := ts.Rows; i > 0; i-- {
			row := Row{Index: i, Year: currentYear - i + 1}
			for j, m := range Months() {
				row.Cells[j] = Cell{Month: m}
			}
			t.Rows = append(t.Rows, row)
		}
		g.Tables = append(g.Tables, t)
	}
	return g
}

// Clone returns a deep copy of the grid.
func (g Grid) Clone() Grid {
	out := Grid{Year: g.Year, Tables: make([]Table, len(g.Tables))}
	for i, t := range g.Tables {
		t.Rows = append([]Row(nil), t.Rows...)
		out.Tables[i] = t
	}
	return out
}

// Table returns the table with the given id.
func (g Grid) Table(id TableID) (Table, bool) {
	for _, t := range g.Tables {
		if t.ID == id {
			return t, true
		}
	}
	return Table{}, false
}

// Fill returns a copy of the grid with submitted values copied onto the
// matching cells. Values for tables or rows absent from the grid are ignored,
// cells without a submitted value become blank.
func (g Grid) Fill(sub Submission) Grid {
	out := g.Clone()
	for ti := range out.Tables {
		t := &out.Tables[ti]
		rows := sub[t.ID]
		for ri := range t.Rows {
			r := &t.Rows[ri]
			r.Quarters = [4]Result{}
			r.Total = Result{}
			values := rows[r.Index]
			for ci := range r.Cells {
				r.Cells[ci].Raw = values[ci]
			}
		}
	}
	return out
}

// Computed reports whether aggregation results are attached.
func (g Grid) Computed() bool {
	for _, t := range g.Tables {
		for _, r := range t.Rows {
			if r.Total.Set {
				return true
			}
		}
	}
	return false
}

// Summaries flattens computed rows, table by table, oldest year first.
func (g Grid) Summaries() []YearSummary {
	var out []YearSummary
	for _, t := range g.Tables {
		for _, r := range t.Rows {
			s := YearSummary{Table: t.ID, Year: r.Year, Total: r.Total.Value}
			for i, c := range r.Cells {
				s.Months[i] = c.Raw
			}
			for i, q := range r.Quarters {
				s.Quarters[i] = q.Value
			}
			out = append(out, s)
		}
	}
	return out
}
