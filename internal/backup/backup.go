package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/mtlprog/finledger/internal/domain"
	"github.com/mtlprog/finledger/internal/store"
)

const bundleVersion = 1

// Bundle is a portable copy of every user collection.
type Bundle struct {
	Version         int                       `json:"version"`
	ExportedAt      time.Time                 `json:"exportedAt"`
	Transactions    []domain.LedgerEntry      `json:"transactions"`
	MonthlyExpenses []domain.LedgerEntry      `json:"monthlyExpenses"`
	Assets          []domain.Asset            `json:"assets"`
	Budgets         []domain.BudgetDefinition `json:"budgets"`
	Salary          *domain.MoneySetting      `json:"salary,omitempty"`
	MonthlyBudget   *domain.MoneySetting      `json:"monthlyBudget,omitempty"`
}

// Repairer runs the store-wide repair pass after an import.
type Repairer interface {
	Repair(ctx context.Context) ([]store.CollectionReport, error)
}

// Export reads every collection, deduplicated, into a bundle.
func Export(ctx context.Context, st *store.Store, now time.Time) Bundle {
	b := Bundle{
		Version:         bundleVersion,
		ExportedAt:      now.UTC(),
		Transactions:    store.NewCollection[domain.LedgerEntry](st, store.Transactions).Records(ctx),
		MonthlyExpenses: store.NewCollection[domain.LedgerEntry](st, store.MonthlyExpenses).Records(ctx),
		Assets:          store.NewCollection[domain.Asset](st, store.Assets).Records(ctx),
		Budgets:         store.NewCollection[domain.BudgetDefinition](st, store.Budgets).Records(ctx),
	}
	if m, ok := store.LoadScalar[domain.MoneySetting](ctx, st, store.Salary); ok {
		b.Salary = &m
	}
	if m, ok := store.LoadScalar[domain.MoneySetting](ctx, st, store.MonthlyBudget); ok {
		b.MonthlyBudget = &m
	}
	return b
}

// WriteJSON encodes b as indented JSON.
func WriteJSON(w io.Writer, b Bundle) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("encoding backup: %w", err)
	}
	return nil
}

// Decode reads a JSON bundle. Malformed records inside the collections are coerced the same
// way stored records are; only a document that is not a bundle at all is rejected.
func Decode(r io.Reader) (Bundle, error) {
	var b Bundle
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return Bundle{}, fmt.Errorf("decoding backup: %w", err)
	}
	return b, nil
}

// Import merges b into the store. Records already stored win over bundle records with the
// same id, and settings are only filled in when unset. The repair pass runs afterwards when
// repairer is not nil; its reports follow the merge reports.
func Import(ctx context.Context, st *store.Store, b Bundle, repairer Repairer) ([]store.CollectionReport, error) {
	var (
		reports []store.CollectionReport
		errs    []error
	)
	add := func(r store.CollectionReport, err error) {
		reports = append(reports, r)
		if err != nil {
			errs = append(errs, err)
		}
	}

	add(store.NewCollection[domain.LedgerEntry](st, store.Transactions).Repair(ctx, b.Transactions...))
	add(store.NewCollection[domain.LedgerEntry](st, store.MonthlyExpenses).Repair(ctx, b.MonthlyExpenses...))
	add(store.NewCollection[domain.Asset](st, store.Assets).Repair(ctx, b.Assets...))
	add(store.NewCollection[domain.BudgetDefinition](st, store.Budgets).Repair(ctx, b.Budgets...))

	for name, setting := range map[string]*domain.MoneySetting{store.Salary: b.Salary, store.MonthlyBudget: b.MonthlyBudget} {
		if setting == nil {
			continue
		}
		if _, ok := store.LoadScalar[domain.MoneySetting](ctx, st, name); ok {
			continue
		}
		if err := store.SaveScalar(ctx, st, name, setting); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return reports, fmt.Errorf("importing backup: %w", errors.Join(errs...))
	}
	if repairer != nil {
		repaired, err := repairer.Repair(ctx)
		reports = append(reports, repaired...)
		if err != nil {
			return reports, fmt.Errorf("repairing after import: %w", err)
		}
	}
	return reports, nil
}
