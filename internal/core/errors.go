package core

import (
	"errors"
	"fmt"
)

// UnknownTableError is returned when a structural command names a table that
// does not exist in the state.
type UnknownTableError struct {
	Table TableID
}

func (e *UnknownTableError) Error() string {
	return fmt.Sprintf("unknown table %d", e.Table)
}

func (e *UnknownTableError) Is(target error) bool {
	return target == ErrUnknownTable
}

// EmptyTableError means a table had no filled cells once trailing blank rows were removed.
type EmptyTableError struct {
	Table TableID
}

func (e *EmptyTableError) Error() string {
	return fmt.Sprintf("table %d is empty", e.Table)
}

func (e *EmptyTableError) Is(target error) bool {
	return target == ErrInvalidSubmission
}

// GapError means a blank cell sits between the first and last filled cell.
// First and Last are positions in the table's flattened cell sequence.
type GapError struct {
	Table  TableID
	First  int
	Last   int
	Filled int
}

func (e *GapError) Error() string {
	return fmt.Sprintf("table %d has a gap: %d filled cells between positions %d and %d", e.Table, e.Filled, e.First, e.Last)
}

func (e *GapError) Is(target error) bool {
	return target == ErrInvalidSubmission
}

// RangeMismatchError means a table covers a different cell range than the reference table.
type RangeMismatchError struct {
	Table     TableID
	Span      Span
	Reference Span
}

func (e *RangeMismatchError) Error() string {
	return fmt.Sprintf("table %d covers %s, table %d covers %s", e.Table, e.Span, ReferenceTable, e.Reference)
}

func (e *RangeMismatchError) Is(target error) bool {
	return target == ErrInvalidSubmission
}

// MissingReferenceError means the grid has no table keyed ReferenceTable, so
// cross-table ranges cannot be compared.
type MissingReferenceError struct{}

func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("reference table %d is missing", ReferenceTable)
}

func (e *MissingReferenceError) Is(target error) bool {
	return target == ErrInvalidSubmission
}

// Kind returns a short machine-readable label for a validation error, or
// "" when err is not one.
func Kind(err error) string {
	var (
		empty    *EmptyTableError
		gap      *GapError
		mismatch *RangeMismatchError
		missing  *MissingReferenceError
		unknown  *UnknownTableError
	)
	switch {
	case errors.As(err, &empty):
		return "empty_table"
	case errors.As(err, &gap):
		return "gap"
	case errors.As(err, &mismatch):
		return "range_mismatch"
	case errors.As(err, &missing):
		return "missing_reference"
	case errors.As(err, &unknown):
		return "unknown_table"
	default:
		return ""
	}
}
