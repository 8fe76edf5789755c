package http

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"yeargrid/internal/core"
)

func TestCellName(t *testing.T) {
	if got := CellName(2, 1, core.Mar); got != "cell-2-1-Mar" {
		t.Errorf("CellName = %q, want %q", got, "cell-2-1-Mar")
	}
}

func TestParseCellName(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantTable core.TableID
		wantRow   int
		wantMonth core.Month
		wantErr   bool
	}{
		{name: "valid", input: "cell-1-1-Jan", wantTable: 1, wantRow: 1, wantMonth: core.Jan},
		{name: "case insensitive month", input: "cell-3-12-dec", wantTable: 3, wantRow: 12, wantMonth: core.Dec},
		{name: "missing prefix", input: "1-1-Jan", wantErr: true},
		{name: "too few parts", input: "cell-1-Jan", wantErr: true},
		{name: "too many parts", input: "cell-1-1-1-Jan", wantErr: true},
		{name: "zero table", input: "cell-0-1-Jan", wantErr: true},
		{name: "negative row", input: "cell-1--1-Jan", wantErr: true},
		{name: "bad month", input: "cell-1-1-Foo", wantErr: true},
		{name: "non-numeric row", input: "cell-1-x-Jan", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, row, month, err := ParseCellName(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedCell) {
					t.Fatalf("err = %v, want ErrMalformedCell", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if table != tt.wantTable || row != tt.wantRow || month != tt.wantMonth {
				t.Errorf("got (%d, %d, %s), want (%d, %d, %s)", table, row, month, tt.wantTable, tt.wantRow, tt.wantMonth)
			}
		})
	}
}

func TestParseTableID(t *testing.T) {
	tests := []struct {
		input   string
		want    core.TableID
		wantErr bool
	}{
		{"1", 1, false},
		{" 12 ", 12, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseTableID(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrMalformedTable) {
				t.Errorf("ParseTableID(%q) err = %v, want ErrMalformedTable", tt.input, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseTableID(%q) = %d, %v; want %d", tt.input, got, err, tt.want)
		}
	}
}

func TestParseSubmission(t *testing.T) {
	form := url.Values{
		"cell-1-1-Jan": {" 5 "},
		"cell-1-1-Feb": {"6,5"},
		"cell-1-2-Dec": {"7"},
		"cell-2-1-Mar": {"1\x00"},
		"csrf":         {"ignored"},
	}

	sub, err := ParseSubmission(form)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := sub[1][1][0]; got != "5" {
		t.Errorf("Jan = %q, want trimmed %q", got, "5")
	}
	if got := sub[1][1][1]; got != "6,5" {
		t.Errorf("Feb = %q, want raw %q", got, "6,5")
	}
	if got := sub[1][2][11]; got != "7" {
		t.Errorf("row 2 Dec = %q, want %q", got, "7")
	}
	if got := sub[2][1][2]; got != "1" {
		t.Errorf("control characters not stripped: %q", got)
	}
	if len(sub) != 2 {
		t.Errorf("tables = %d, want 2", len(sub))
	}
}

func TestParseSubmission_Rejects(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
		want error
	}{
		{"malformed cell", url.Values{"cell-x-1-Jan": {"1"}}, ErrMalformedCell},
		{"value too long", url.Values{"cell-1-1-Jan": {strings.Repeat("9", maxValueLength+1)}}, ErrValueTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSubmission(tt.form); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  hello  ", "hello"},
		{"a\x00b\x07c", "abc"},
		{"tab\there", "tab\there"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.input); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
