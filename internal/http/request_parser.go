// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// grid cell field names, submitted values and table ids from the URL.

package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"yeargrid/internal/core"
)

const (
	cellPrefix = "cell-"

	// maxValueLength bounds a single submitted cell value.
	maxValueLength = 64
	// maxFormBytes bounds the whole request body of a form post.
	maxFormBytes = 1 << 20
)

var (
	ErrMalformedCell  = errors.New("malformed cell field")
	ErrMalformedTable = errors.New("malformed table id")
	ErrValueTooLong   = errors.New("cell value too long")
)

// CellName returns the form field name of a cell input, e.g. "cell-2-1-Mar".
func CellName(table core.TableID, row int, month core.Month) string {
	return fmt.Sprintf("%s%d-%d-%s", cellPrefix, table, row, month)
}

// ParseCellName splits a cell field name into its table, row and month.
func ParseCellName(name string) (core.TableID, int, core.Month, error) {
	rest, ok := strings.CutPrefix(name, cellPrefix)
	if !ok {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrMalformedCell, name)
	}
	parts := strings.Split(rest, "-")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrMalformedCell, name)
	}

	table, err := ParseTableID(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrMalformedCell, name)
	}
	row, err := strconv.Atoi(parts[1])
	if err != nil || row < 1 {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrMalformedCell, name)
	}
	month, err := core.ParseMonth(parts[2])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrMalformedCell, name)
	}
	return table, row, month, nil
}

// ParseTableID parses a positive table id.
func ParseTableID(s string) (core.TableID, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTable, s)
	}
	return core.TableID(n), nil
}

// ParseSubmission collects every cell field of the form into a submission.
// Fields without the cell prefix are ignored; a cell field that does not
// parse, or whose value is too long, fails the whole submission.
func ParseSubmission(form url.Values) (core.Submission, error) {
	sub := core.Submission{}
	for name, values := range form {
		if !strings.HasPrefix(name, cellPrefix) {
			continue
		}
		table, row, month, err := ParseCellName(name)
		if err != nil {
			return nil, err
		}

		var value string
		if len(values) > 0 {
			value = sanitizeInput(values[0])
		}
		if len(value) > maxValueLength {
			return nil, fmt.Errorf("%w: %s", ErrValueTooLong, name)
		}

		rows, ok := sub[table]
		if !ok {
			rows = map[int]core.SubmittedRow{}
			sub[table] = rows
		}
		r := rows[row]
		r[month-1] = value
		rows[row] = r
	}
	return sub, nil
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(w http.ResponseWriter, r *http.Request) *HTMXResponseBuilder {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Malformed request")
	}
	return nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
