package worker

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"workcal/internal/amqp"
	"workcal/internal/backup"
	"workcal/internal/core"
	"workcal/internal/sheets"
)

// Source is read directly so the worker always sees committed data, even when
// the server process holds its own in-memory snapshot.
type Source interface {
	ListAll(ctx context.Context) ([]core.Appointment, error)
}

type BackupConfig struct {
	Dir  string
	Keep int
}

// BackupWorker writes a backup file whenever the collection changed since the
// previous run, prunes old files and refreshes the optional Sheets mirror.
type BackupWorker struct {
	source Source
	mirror sheets.SnapshotMirror
	cfg    BackupConfig
	now    func() time.Time

	mu          sync.Mutex
	lastDigest  [sha256.Size]byte
	hasDigest   bool
	mirrorStale bool
}

func NewBackupWorker(source Source, mirror sheets.SnapshotMirror, cfg BackupConfig) *BackupWorker {
	return &BackupWorker{
		source: source,
		mirror: mirror,
		cfg:    cfg,
		now:    time.Now,
	}
}

// HandleChange processes one change notification from AMQP.
func (w *BackupWorker) HandleChange(ctx context.Context, msg *amqp.AppointmentsChangedMessage) error {
	slog.InfoContext(ctx, "Processing change notification",
		"version", msg.Version,
		"count", msg.Count,
		"sent_at", msg.Timestamp)
	_, err := w.Backup(ctx, "notification")
	return err
}

// Run backs up on start and then every interval until ctx is done.
func (w *BackupWorker) Run(ctx context.Context, interval time.Duration) error {
	if _, err := w.Backup(ctx, "startup"); err != nil {
		slog.ErrorContext(ctx, "Startup backup failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Backup worker stopped")
			return nil
		case <-ticker.C:
			if _, err := w.Backup(ctx, "periodic"); err != nil {
				slog.ErrorContext(ctx, "Periodic backup failed", "error", err)
			}
		}
	}
}

// Backup writes a new file unless the data is unchanged since the last one.
// It returns the written path, or "" when skipped.
func (w *BackupWorker) Backup(ctx context.Context, reason string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	all, err := w.source.ListAll(ctx)
	if err != nil {
		return "", fmt.Errorf("load appointments: %w", err)
	}
	digest, err := digestOf(all)
	if err != nil {
		return "", err
	}
	now := w.now()
	if w.hasDigest && digest == w.lastDigest {
		if w.mirrorStale {
			w.refreshMirror(ctx, all, now)
		}
		slog.DebugContext(ctx, "Backup skipped, no changes", "reason", reason)
		return "", nil
	}

	var buf bytes.Buffer
	if err := backup.Encode(&buf, all, now); err != nil {
		return "", err
	}
	path, err := backup.WriteFile(w.cfg.Dir, now, buf.Bytes())
	if err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	w.lastDigest, w.hasDigest = digest, true

	removed, err := backup.Prune(w.cfg.Dir, w.cfg.Keep)
	if err != nil {
		slog.WarnContext(ctx, "Failed to prune old backups", "error", err)
	}

	slog.InfoContext(ctx, "Backup written",
		"path", path,
		"count", len(all),
		"reason", reason,
		"pruned", len(removed))

	w.refreshMirror(ctx, all, now)
	return path, nil
}

// refreshMirror failures are retried on the next Backup call.
func (w *BackupWorker) refreshMirror(ctx context.Context, all []core.Appointment, now time.Time) {
	if w.mirror == nil {
		return
	}
	if err := w.mirror.MirrorAppointments(ctx, all, now); err != nil {
		slog.ErrorContext(ctx, "Failed to mirror appointments to Google Sheets", "error", err)
		w.mirrorStale = true
		return
	}
	w.mirrorStale = false
}

func digestOf(all []core.Appointment) ([sha256.Size]byte, error) {
	b, err := json.Marshal(all)
	if err != nil {
		return [sha256.Size]byte{}, fmt.Errorf("digest appointments: %w", err)
	}
	return sha256.Sum256(b), nil
}
