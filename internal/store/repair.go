package store

import (
	"context"
	"log/slog"
)

// CollectionReport summarizes the repair of one collection.
type CollectionReport struct {
	Collection     string `json:"collection"`
	Loaded         int    `json:"loaded"`
	Kept           int    `json:"kept"`
	IDsAssigned    int    `json:"idsAssigned"`
	AmountsCoerced int    `json:"amountsCoerced"`
	Skipped        int    `json:"skipped"`
	Folded         int    `json:"folded,omitempty"`
	Rewritten      bool   `json:"rewritten"`
}

// Changed reports whether the repaired contents differ from what was stored.
func (r CollectionReport) Changed() bool {
	return r.Loaded != r.Kept || r.IDsAssigned > 0 || r.AmountsCoerced > 0 || r.Skipped > 0 || r.Folded > 0
}

// Repair dedupes the collection and writes it back when that changed anything.
// extra records (e.g. from a mirror) are appended after the stored ones before deduping;
// Folded counts those that were not already present.
func (c *Collection[T]) Repair(ctx context.Context, extra ...T) (CollectionReport, error) {
	records, stats, err := c.loadForWrite(ctx)
	if err != nil {
		return CollectionReport{Collection: c.name}, err
	}

	deduped, assigned := dedupe(records)
	merged := Merge(deduped, extra)

	report := CollectionReport{
		Collection:     c.name,
		Loaded:         stats.Loaded,
		Kept:           len(deduped),
		IDsAssigned:    assigned,
		AmountsCoerced: stats.Coerced,
		Skipped:        stats.Skipped,
		Folded:         len(merged) - len(deduped),
	}
	if !report.Changed() {
		return report, nil
	}

	if err := c.Save(ctx, merged); err != nil {
		return report, err
	}
	report.Rewritten = true
	slog.Info("repaired collection",
		"collection", c.name,
		"loaded", report.Loaded,
		"kept", report.Kept,
		"ids_assigned", report.IDsAssigned,
		"amounts_coerced", report.AmountsCoerced,
		"skipped", report.Skipped,
		"folded", report.Folded)
	return report, nil
}
