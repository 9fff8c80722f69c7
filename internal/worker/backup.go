// Package worker hosts the periodic background jobs run under the server's
// worker WaitGroup.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperengineering/stockin/internal/backup"
)

// BackupStore defines the store operations needed by the backup worker.
type BackupStore interface {
	BackupTo(ctx context.Context, path string) error
}

// BackupWorker periodically writes a consistent database copy and uploads it.
// Failures are logged and retried on the next tick, never fatal.
type BackupWorker struct {
	store    BackupStore
	uploader backup.Uploader
	interval time.Duration
}

// NewBackupWorker creates a worker with the given store, uploader and interval.
func NewBackupWorker(store BackupStore, uploader backup.Uploader, interval time.Duration) *BackupWorker {
	return &BackupWorker{
		store:    store,
		uploader: uploader,
		interval: interval,
	}
}

// Run starts the worker loop. Backs up immediately on start, then on each
// interval. Respects context cancellation for graceful shutdown.
func (w *BackupWorker) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "backup",
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.backup(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "backup",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			w.backup(ctx)
		}
	}
}

// backup writes the copy to a temp file, uploads it, and cleans up.
func (w *BackupWorker) backup(ctx context.Context) {
	dir, err := os.MkdirTemp("", "stockin-backup-")
	if err != nil {
		slog.Warn("backup temp dir creation failed", "error", err)
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "stockin.db")
	if err := w.store.BackupTo(ctx, path); err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Warn("database backup failed", "error", err)
		return
	}

	key := fmt.Sprintf("backups/%s/stockin.db", time.Now().UTC().Format("2006-01-02"))
	if err := w.uploader.Upload(ctx, key, path); err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Warn("backup upload failed", "key", key, "error", err)
		return
	}

	slog.Info("database backup completed", "key", key)
}
