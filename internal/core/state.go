package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	CommandAddTable CommandKind = "add-table"
	CommandAddRow   CommandKind = "add-row"
)

type (
	// CommandKind names a structural edit.
	CommandKind string

	// Command is a structural edit issued by the user. Table is only used by add-row.
	Command struct {
		Kind  CommandKind
		Table TableID
	}

	// TableState is one entry of the TableId -> RowCount mapping.
	TableState struct {
		ID   TableID
		Rows int
	}

	// State is the TableId -> RowCount mapping that decides the grid shape.
	// It is a value: transitions return a new State and never modify the receiver.
	State struct {
		tables []TableState // ascending by ID
	}
)

// InitialState returns the state of a fresh session: one table with one row.
func InitialState() State {
	return State{tables: []TableState{{ID: 1, Rows: 1}}}
}

// NewState builds a State from a TableId -> RowCount mapping.
func NewState(rows map[TableID]int) (State, error) {
	if len(rows) == 0 {
		return State{}, fmt.Errorf("%w: no tables", ErrInvalidState)
	}
	tables := make([]TableState, 0, len(rows))
	for id, n := range rows {
		if id < 1 {
			return State{}, fmt.Errorf("%w: table id %d", ErrInvalidState, id)
		}
		if n < 1 {
			return State{}, fmt.Errorf("%w: table %d has %d rows", ErrInvalidState, id, n)
		}
		tables = append(tables, TableState{ID: id, Rows: n})
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].ID < tables[j].ID })
	return State{tables: tables}, nil
}

// IsZero reports whether the state holds no tables, e.g. the zero value.
func (s State) IsZero() bool {
	return len(s.tables) == 0
}

// Tables returns the tables in ascending id order.
func (s State) Tables() []TableState {
	return append([]TableState(nil), s.tables...)
}

// Rows returns the state as a plain mapping.
func (s State) Rows() map[TableID]int {
	out := make(map[TableID]int, len(s.tables))
	for _, t := range s.tables {
		out[t.ID] = t.Rows
	}
	return out
}

// RowCount returns the row count of a table and whether it exists.
func (s State) RowCount(id TableID) (int, bool) {
	for _, t := range s.tables {
		if t.ID == id {
			return t.Rows, true
		}
	}
	return 0, false
}

// AddTable appends a table with one row. Its id is one greater than the
// current maximum, so ids are never reused.
func (s State) AddTable() (State, TableID) {
	next := TableID(1)
	if n := len(s.tables); n > 0 {
		next = s.tables[n-1].ID + 1
	}
	tables := make([]TableState, len(s.tables), len(s.tables)+1)
	copy(tables, s.tables)
	return State{tables: append(tables, TableState{ID: next, Rows: 1})}, next
}

// AddRow increments the row count of an existing table.
func (s State) AddRow(id TableID) (State, error) {
	tables := s.Tables()
	for i := range tables {
		if tables[i].ID == id {
			tables[i].Rows++
			return State{tables: tables}, nil
		}
	}
	return s, &UnknownTableError{Table: id}
}

// Key returns a stable fingerprint of the state, e.g. "1:1,2:3".
func (s State) Key() string {
	parts := make([]string, len(s.tables))
	for i, t := range s.tables {
		parts[i] = strconv.Itoa(int(t.ID)) + ":" + strconv.Itoa(t.Rows)
	}
	return strings.Join(parts, ",")
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Rows())
}

func (s *State) UnmarshalJSON(data []byte) error {
	var rows map[TableID]int
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	st, err := NewState(rows)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Apply runs a structural command against the state and returns the table it
// touched: the new table for add-table, the grown one for add-row.
func Apply(s State, c Command) (State, TableID, error) {
	switch c.Kind {
	case CommandAddTable:
		next, id := s.AddTable()
		return next, id, nil
	case CommandAddRow:
		next, err := s.AddRow(c.Table)
		return next, c.Table, err
	default:
		return s, 0, fmt.Errorf("unsupported command %q", c.Kind)
	}
}
