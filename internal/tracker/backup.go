package tracker

import (
	"context"

	"github.com/mtlprog/finledger/internal/backup"
	"github.com/mtlprog/finledger/internal/store"
)

// Backup exports every collection.
func (t *Tracker) Backup(ctx context.Context) backup.Bundle {
	return backup.Export(ctx, t.store, t.now())
}

// Restore merges b into the stored collections, keeping stored records on id clashes, and
// then runs the repair pass.
func (t *Tracker) Restore(ctx context.Context, b backup.Bundle) ([]store.CollectionReport, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return backup.Import(ctx, t.store, b, repairFunc(t.repair))
}

type repairFunc func(ctx context.Context) ([]store.CollectionReport, error)

func (f repairFunc) Repair(ctx context.Context) ([]store.CollectionReport, error) { return f(ctx) }
