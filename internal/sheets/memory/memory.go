// Package memory is an in-process ResultWriter, used when no external sheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"yeargrid/internal/sheets"
)

type Writer struct {
	mu      sync.Mutex
	rows    [][]any
	batches map[string]string
}

var _ sheets.ResultWriter = (*Writer)(nil)

func New() *Writer {
	return &Writer{batches: make(map[string]string)}
}

// AppendResults stores the rows and returns a synthetic range reference.
// A batch id seen before is not written again.
func (w *Writer) AppendResults(_ context.Context, b sheets.Batch) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if ref, ok := w.batches[b.ID]; ok {
		return ref, nil
	}
	first := len(w.rows) + 1
	for _, s := range b.Rows {
		w.rows = append(w.rows, sheets.RowValues(b, s))
	}
	ref := fmt.Sprintf("mem:%d-%d", first, len(w.rows))
	w.batches[b.ID] = ref
	return ref, nil
}

// Rows returns a copy of every written row.
func (w *Writer) Rows() [][]any {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([][]any, len(w.rows))
	copy(out, w.rows)
	return out
}
