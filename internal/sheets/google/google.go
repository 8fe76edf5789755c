// Package google writes computed results to a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"yeargrid/internal/log"
	"yeargrid/internal/sheets"
)

// Config selects the target sheet and the service account credentials.
// CredentialsJSON wins over CredentialsFile.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type Writer struct {
	values        valuesAPI
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

var _ sheets.ResultWriter = (*Writer)(nil)

// NewWriter creates a Sheets writer authenticated with a service account.
func NewWriter(ctx context.Context, cfg Config, logger *log.Logger) (*Writer, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(cfg.SheetName) == "" {
		return nil, errors.New("missing sheet name")
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	logger.InfoContext(ctx, "Google Sheets writer ready", "sheet", cfg.SheetName)
	return newWriter(&serviceValues{svc: svc}, cfg, logger), nil
}

func newWriter(api valuesAPI, cfg Config, logger *log.Logger) *Writer {
	return &Writer{
		values:        api,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
		logger:        logger,
	}
}

func credentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// EnsureHeader writes the column header when the first row of the sheet is empty.
func (w *Writer) EnsureHeader(ctx context.Context) error {
	rng := fmt.Sprintf("%s!A1:1", w.sheetName)
	existing, err := w.values.Get(ctx, w.spreadsheetID, rng)
	if err != nil {
		return fmt.Errorf("read header %s: %w", rng, err)
	}
	if len(existing) > 0 && len(existing[0]) > 0 {
		return nil
	}

	header := sheets.ColumnHeader()
	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}
	if _, err := w.values.Update(ctx, w.spreadsheetID, rng, [][]any{row}); err != nil {
		return fmt.Errorf("write header %s: %w", rng, err)
	}
	w.logger.InfoContext(ctx, "Wrote result sheet header", "sheet", w.sheetName)
	return nil
}

// AppendResults appends one sheet row per summary below the existing data.
func (w *Writer) AppendResults(ctx context.Context, b sheets.Batch) (string, error) {
	if len(b.Rows) == 0 {
		return "", nil
	}

	values := make([][]any, 0, len(b.Rows))
	for _, s := range b.Rows {
		values = append(values, sheets.RowValues(b, s))
	}

	ref, err := w.values.Append(ctx, w.spreadsheetID, fmt.Sprintf("%s!A1", w.sheetName), values)
	if err != nil {
		return "", fmt.Errorf("append results to %s: %w", w.sheetName, err)
	}

	w.logger.InfoContext(ctx, "Appended results",
		"batch", b.ID,
		log.FieldRowCount, len(values),
		"range", ref)
	return ref, nil
}
