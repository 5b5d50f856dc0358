package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/mtlprog/finledger/internal/budget"
	"github.com/mtlprog/finledger/internal/currency"
	"github.com/mtlprog/finledger/internal/domain"
	"github.com/mtlprog/finledger/internal/store"
)

// LoadBudgets returns the budget definitions, one per id.
func (t *Tracker) LoadBudgets(ctx context.Context) []domain.BudgetDefinition {
	return t.budgets.Records(ctx)
}

// BudgetProgress computes every budget's usage in w, in the display currency code.
func (t *Tracker) BudgetProgress(ctx context.Context, w budget.Window, code string) domain.BudgetSummary {
	display := t.DisplayCurrency(code)
	snap := t.rates.Current(ctx, display)
	spent := budget.SpentByCategory(t.LoadLedger(ctx), w, display, snap)
	return budget.Summary(t.LoadBudgets(ctx), spent, display, snap)
}

// UpsertBudget stores def. Budget names are unique, ignoring case.
func (t *Tracker) UpsertBudget(ctx context.Context, def domain.BudgetDefinition) (domain.BudgetDefinition, bool, error) {
	def.ID = strings.TrimSpace(def.ID)
	def.Name = strings.TrimSpace(def.Name)
	if def.Name == "" {
		return domain.BudgetDefinition{}, false, fmt.Errorf("%w: budget name is required", ErrInvalid)
	}
	if def.Amount.IsNegative() {
		return domain.BudgetDefinition{}, false, fmt.Errorf("%w: negative budget amount %s", ErrInvalid, def.Amount)
	}
	def.Currency = currency.Normalize(def.Currency, t.opts.DisplayCurrency)

	t.mu.Lock()
	defer t.mu.Unlock()

	clash := lo.ContainsBy(t.LoadBudgets(ctx), func(b domain.BudgetDefinition) bool {
		return b.ID != def.ID && strings.EqualFold(b.Name, def.Name)
	})
	if clash {
		return domain.BudgetDefinition{}, false, fmt.Errorf("%w: %q", ErrDuplicateBudget, def.Name)
	}

	stored, created, err := t.budgets.Upsert(ctx, def)
	if err != nil {
		return domain.BudgetDefinition{}, false, fmt.Errorf("saving budget: %w", err)
	}
	return stored, created, nil
}

// DeleteBudget removes the budget with id.
func (t *Tracker) DeleteBudget(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	err := store.DeleteFromAll(ctx, id, t.budgets)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("budget", id)
	}
	return err
}
