package tracker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mtlprog/finledger/internal/store"
)

// Repair dedupes every collection, assigns missing ids, persists coerced amounts and folds
// entries that exist only in the monthly-expense mirror into the general ledger. Collections
// whose content did not change are not written. A failing collection does not stop the others.
func (t *Tracker) Repair(ctx context.Context) ([]store.CollectionReport, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.repair(ctx)
}

func (t *Tracker) repair(ctx context.Context) ([]store.CollectionReport, error) {
	var (
		reports []store.CollectionReport
		errs    []error
	)
	record := func(r store.CollectionReport, err error) {
		reports = append(reports, r)
		if err != nil {
			slog.Warn("repair failed", "collection", r.Collection, "error", err)
			errs = append(errs, err)
		}
	}

	// The mirror is repaired first so the ids folded into the ledger are the persisted ones.
	mirrorReport, err := t.mirror.Repair(ctx)
	record(mirrorReport, err)
	if err == nil {
		record(t.ledger.Repair(ctx, t.mirror.Records(ctx)...))
	} else {
		record(t.ledger.Repair(ctx))
	}
	record(t.assets.Repair(ctx))
	record(t.budgets.Repair(ctx))

	return reports, errors.Join(errs...)
}
