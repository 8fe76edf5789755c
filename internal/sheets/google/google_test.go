package google

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yeargrid/internal/core"
	"yeargrid/internal/log"
	"yeargrid/internal/sheets"
)

type fakeValues struct {
	existing [][]any
	updated  map[string][][]any
	appended [][]any
	err      error
}

func (f *fakeValues) Get(_ context.Context, _, _ string) ([][]any, error) {
	return f.existing, f.err
}

func (f *fakeValues) Update(_ context.Context, _, rng string, values [][]any) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.updated == nil {
		f.updated = map[string][][]any{}
	}
	f.updated[rng] = values
	return rng, nil
}

func (f *fakeValues) Append(_ context.Context, _, rng string, values [][]any) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.appended = append(f.appended, values...)
	return "Results!A2:W3", nil
}

func testWriter(api valuesAPI) *Writer {
	return newWriter(api, Config{SpreadsheetID: "sheet-id", SheetName: "Results"}, log.Discard())
}

func TestEnsureHeader(t *testing.T) {
	api := &fakeValues{}
	require.NoError(t, testWriter(api).EnsureHeader(context.Background()))

	written := api.updated["Results!A1:1"]
	require.Len(t, written, 1)
	assert.Equal(t, "Batch", written[0][0])
	assert.Len(t, written[0], len(sheets.ColumnHeader()))
}

func TestEnsureHeaderKeepsExisting(t *testing.T) {
	api := &fakeValues{existing: [][]any{{"Batch"}}}
	require.NoError(t, testWriter(api).EnsureHeader(context.Background()))
	assert.Empty(t, api.updated)
}

func TestAppendResults(t *testing.T) {
	api := &fakeValues{}
	b := sheets.Batch{
		ID:        "b1",
		SessionID: "sid",
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Rows:      []core.YearSummary{{Table: 1, Year: 2023}, {Table: 1, Year: 2024}},
	}

	ref, err := testWriter(api).AppendResults(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, "Results!A2:W3", ref)
	require.Len(t, api.appended, 2)
	assert.Equal(t, "b1", api.appended[1][0])

	ref, err = testWriter(api).AppendResults(context.Background(), sheets.Batch{ID: "empty"})
	require.NoError(t, err)
	assert.Empty(t, ref)
}

func TestAppendResultsError(t *testing.T) {
	api := &fakeValues{err: errors.New("quota exceeded")}
	_, err := testWriter(api).AppendResults(context.Background(), sheets.Batch{ID: "b", Rows: []core.YearSummary{{}}})
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestCredentials(t *testing.T) {
	file := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"type":"service_account"}`), 0600))

	b, err := credentials(Config{CredentialsJSON: `{"inline":true}`, CredentialsFile: file})
	require.NoError(t, err)
	assert.Equal(t, `{"inline":true}`, string(b))

	b, err = credentials(Config{CredentialsFile: file})
	require.NoError(t, err)
	assert.Contains(t, string(b), "service_account")

	_, err = credentials(Config{})
	assert.Error(t, err)
}

func TestNewWriterValidatesConfig(t *testing.T) {
	_, err := NewWriter(context.Background(), Config{SheetName: "Results"}, nil)
	assert.Error(t, err)
	_, err = NewWriter(context.Background(), Config{SpreadsheetID: "x"}, nil)
	assert.Error(t, err)
}
