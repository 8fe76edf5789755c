package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"yeargrid/internal/cache"
	"yeargrid/internal/cli"
	"yeargrid/internal/config"
	"yeargrid/internal/log"
	"yeargrid/internal/sheets"
	gsheet "yeargrid/internal/sheets/google"
	mem "yeargrid/internal/sheets/memory"
	"yeargrid/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentWorker)

	ctx, stop := cli.SignalContext()
	defer stop()

	logger.Info("Starting yeargrid-worker", "sink", cfg.ResultSink, "queue", cfg.AMQPQueue)
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	if !cfg.PublishingEnabled() {
		return errors.New("AMQP_URL is required for the export worker")
	}

	writer, err := newResultWriter(ctx, cfg, logger)
	if err != nil {
		return err
	}

	client, err := cli.DialAMQP(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("connect AMQP: %w", err)
	}
	defer client.Close()

	w := worker.NewExportWorker(client, writer, logger)
	janitor := cache.NewJanitor(10*time.Minute, func(removed int) {
		logger.Debug("Swept exported message ids", "removed", removed)
	})
	janitor.Register(w.SeenCache())

	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return w.Run(egctx) })
	eg.Go(func() error { return janitor.Run(egctx) })
	return eg.Wait()
}

func newResultWriter(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.ResultWriter, error) {
	if cfg.ResultSink != config.SinkSheets {
		logger.Info("Using in-memory result sink")
		return mem.New(), nil
	}

	w, err := gsheet.NewWriter(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init Google Sheets writer: %w", err)
	}
	if err := w.EnsureHeader(ctx); err != nil {
		return nil, fmt.Errorf("ensure sheet header: %w", err)
	}
	logger.Info("Google Sheets result sink initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	return w, nil
}
