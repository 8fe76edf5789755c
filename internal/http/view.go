package http

import (
	"fmt"

	"yeargrid/internal/core"
)

type (
	cellView struct {
		Name  string
		Label string
		Value string
	}

	quarterView struct {
		Cells  [3]cellView
		Result string
	}

	rowView struct {
		Index    int
		Year     int
		Quarters [4]quarterView
		Total    string
	}

	tableView struct {
		ID        core.TableID
		Rows      []rowView
		AddRowURL string
	}

	// pageView is the data handed to the index and grid templates.
	pageView struct {
		Year        int
		Header      []string
		Tables      []tableView
		Computed    bool
		Message     string
		MessageKind NotificationType
	}
)

func newPageView(g core.Grid) pageView {
	v := pageView{
		Year:     g.Year,
		Header:   core.Header(),
		Tables:   make([]tableView, 0, len(g.Tables)),
		Computed: g.Computed(),
	}
	for _, t := range g.Tables {
		tv := tableView{
			ID:        t.ID,
			Rows:      make([]rowView, 0, len(t.Rows)),
			AddRowURL: fmt.Sprintf("/tables/%d/rows", t.AddRow.Table),
		}
		for _, r := range t.Rows {
			tv.Rows = append(tv.Rows, newRowView(t.ID, r))
		}
		v.Tables = append(v.Tables, tv)
	}
	return v
}

func newRowView(id core.TableID, r core.Row) rowView {
	rv := rowView{Index: r.Index, Year: r.Year, Total: r.Total.Format()}
	for q := core.Quarter(1); q <= 4; q++ {
		qv := quarterView{Result: r.Quarters[q-1].Format()}
		for i, m := range q.Months() {
			qv.Cells[i] = cellView{
				Name:  CellName(id, r.Index, m),
				Label: fmt.Sprintf("%s %d, table %d", m, r.Year, id),
				Value: r.Cells[m-1].Raw,
			}
		}
		rv.Quarters[q-1] = qv
	}
	return rv
}

func (v pageView) withMessage(kind NotificationType, message string) pageView {
	v.MessageKind = kind
	v.Message = message
	return v
}
