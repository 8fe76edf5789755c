// Package worker consumes published results and exports them to a result sheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yeargrid/internal/amqp"
	"yeargrid/internal/cache"
	"yeargrid/internal/log"
	"yeargrid/internal/sheets"
)

// Consumer delivers result messages to a handler until ctx is done.
type Consumer interface {
	ConsumeResults(ctx context.Context, handler amqp.ResultHandler) error
}

const (
	seenCacheSize = 10000
	seenCacheTTL  = 24 * time.Hour
	writeTimeout  = 30 * time.Second
)

// ExportWorker appends every consumed result to a ResultWriter. Message ids
// already written are skipped, so broker redeliveries do not duplicate rows.
type ExportWorker struct {
	consumer Consumer
	writer   sheets.ResultWriter
	logger   *log.Logger
	seen     *cache.LRUCache[string]
}

func NewExportWorker(consumer Consumer, writer sheets.ResultWriter, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExportWorker{
		consumer: consumer,
		writer:   writer,
		logger:   logger.WithComponent(log.ComponentWorker),
		seen:     cache.NewLRUCache[string](seenCacheSize, seenCacheTTL),
	}
}

// Run consumes until ctx is cancelled. Cancellation is not reported as an error.
func (w *ExportWorker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Export worker started")
	err := w.consumer.ConsumeResults(ctx, w.Handle)
	if errors.Is(err, context.Canceled) {
		w.logger.InfoContext(ctx, "Export worker stopped")
		return nil
	}
	return err
}

// Handle writes one result message.
func (w *ExportWorker) Handle(ctx context.Context, msg *amqp.ResultMessage) error {
	if ref, ok := w.seen.Get(msg.ID); ok {
		w.logger.DebugContext(ctx, "Skipping already exported result", log.FieldMessageID, msg.ID, "range", ref)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	ref, err := w.writer.AppendResults(ctx, sheets.Batch{
		ID:        msg.ID,
		SessionID: msg.SessionID,
		Rows:      msg.Rows,
		CreatedAt: msg.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("export result %s: %w", msg.ID, err)
	}
	w.seen.Set(msg.ID, ref)

	w.logger.InfoContext(ctx, "Exported result",
		log.FieldMessageID, msg.ID,
		log.FieldSessionID, msg.SessionID,
		log.FieldRowCount, len(msg.Rows),
		"range", ref)
	return nil
}

// SeenCache exposes the dedupe cache so it can be swept by a janitor.
func (w *ExportWorker) SeenCache() *cache.LRUCache[string] {
	return w.seen
}
