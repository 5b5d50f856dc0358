package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/mtlprog/finledger/internal/backup"
)

const backupPrefix = "finledger-"

// BackupSource exports the current data.
type BackupSource interface {
	Backup(ctx context.Context) backup.Bundle
}

// BackupWorker periodically writes a JSON backup into a directory, one file per day, and
// prunes all but the newest keep files.
type BackupWorker struct {
	source   BackupSource
	dir      string
	interval time.Duration
	keep     int
	now      func() time.Time
}

// NewBackupWorker creates a new BackupWorker.
func NewBackupWorker(source BackupSource, dir string, interval time.Duration, keep int) *BackupWorker {
	return &BackupWorker{
		source:   source,
		dir:      dir,
		interval: interval,
		keep:     max(keep, 1),
		now:      time.Now,
	}
}

// Run starts the backup worker loop. It blocks until the context is cancelled.
func (w *BackupWorker) Run(ctx context.Context) {
	slog.Info("BackupWorker: starting", "dir", w.dir, "interval", w.interval)

	// Back up immediately on startup
	w.backup(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("BackupWorker: shutting down")
			return
		case <-ticker.C:
			w.backup(ctx)
		}
	}
}

func (w *BackupWorker) backup(ctx context.Context) {
	path, err := w.write(ctx)
	if err != nil {
		slog.Error("BackupWorker: backup failed", "error", err)
		return
	}
	slog.Info("BackupWorker: backup written", "path", path)

	if err := w.prune(); err != nil {
		slog.Warn("BackupWorker: pruning old backups failed", "error", err)
	}
}

func (w *BackupWorker) write(ctx context.Context) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating backup dir: %w", err)
	}
	name := backupPrefix + w.now().UTC().Format("20060102") + ".json"
	path := filepath.Join(w.dir, name)

	tmp, err := os.CreateTemp(w.dir, name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating backup file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := backup.WriteJSON(tmp, w.source.Backup(ctx)); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing backup file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("renaming backup file: %w", err)
	}
	return path, nil
}

// prune removes the oldest backups beyond keep. File names sort by date.
func (w *BackupWorker) prune() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("listing backups: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), backupPrefix) && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	for len(names) > w.keep {
		if err := os.Remove(filepath.Join(w.dir, names[0])); err != nil {
			return fmt.Errorf("removing %s: %w", names[0], err)
		}
		names = names[1:]
	}
	return nil
}
