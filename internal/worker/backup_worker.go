// Package worker mirrors transactions from SQLite to the backup sheet.
// Messages from the sync queue drive the normal path; a startup check and
// a periodic sweep recover anything the queue missed.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finassist/internal/amqp"
	"finassist/internal/core"
	"finassist/internal/sheets"
	"finassist/internal/storage"
)

type BackupWorker struct {
	storage   *storage.SQLiteRepository
	mirror    sheets.TransactionMirror
	batchSize int
}

func NewBackupWorker(storage *storage.SQLiteRepository, mirror sheets.TransactionMirror, batchSize int) *BackupWorker {
	return &BackupWorker{
		storage:   storage,
		mirror:    mirror,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes one sync message: fetch the transaction
// from SQLite and mirror it.
func (w *BackupWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"version", msg.Version)

	t, err := w.storage.GetTransaction(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	if err := w.mirrorTransaction(ctx, t.ID, t); err != nil {
		return fmt.Errorf("mirror transaction: %w", err)
	}

	return nil
}

// ProcessPendingTransactions mirrors transactions the queue missed. The
// periodic sweep calls this on every tick.
func (w *BackupWorker) ProcessPendingTransactions(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncTransactions(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	for _, p := range pending {
		t, err := w.storage.GetTransaction(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get transaction", "id", p.ID, "error", err)
			if err := w.storage.MarkSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			continue
		}
		if err := w.mirrorTransaction(ctx, p.ID, t); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror transaction", "id", p.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupSyncCheck catches up on anything that accumulated while the
// worker was down, with a larger batch than the periodic sweep.
func (w *BackupWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncTransactions(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending transactions for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending transactions on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, p := range pending {
		t, err := w.storage.GetTransaction(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get transaction for startup sync",
				"id", p.ID, "error", err)
			if err := w.storage.MarkSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			errorCount++
			continue
		}
		if err := w.mirrorTransaction(ctx, p.ID, t); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror transaction during startup",
				"id", p.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}

// RunPeriodicSweep runs ProcessPendingTransactions on a fixed interval
// until ctx is done.
func (w *BackupWorker) RunPeriodicSweep(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPendingTransactions(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic sweep failed", "error", err)
			}
		}
	}
}

func (w *BackupWorker) mirrorTransaction(ctx context.Context, id string, t core.Transaction) error {
	ref, err := w.mirror.Append(ctx, t)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to backup sheet: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, id); err != nil {
		// The mirror write itself succeeded, keep going.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Transaction mirrored",
		"id", id,
		"sheet_ref", ref,
		"amount_cents", t.Amount.Cents)

	return nil
}
