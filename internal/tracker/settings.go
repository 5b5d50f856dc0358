package tracker

import (
	"context"
	"fmt"

	"github.com/mtlprog/finledger/internal/currency"
	"github.com/mtlprog/finledger/internal/domain"
	"github.com/mtlprog/finledger/internal/store"
)

// Salary returns the stored monthly salary. Legacy values without a currency are in the
// default currency.
func (t *Tracker) Salary(ctx context.Context) (domain.MoneySetting, bool) {
	return t.loadMoney(ctx, store.Salary)
}

// SetSalary stores the monthly salary.
func (t *Tracker) SetSalary(ctx context.Context, m domain.MoneySetting) error {
	return t.saveMoney(ctx, store.Salary, m)
}

// MonthlyBudget returns the overall monthly spending cap.
func (t *Tracker) MonthlyBudget(ctx context.Context) (domain.MoneySetting, bool) {
	return t.loadMoney(ctx, store.MonthlyBudget)
}

// SetMonthlyBudget stores the overall monthly spending cap.
func (t *Tracker) SetMonthlyBudget(ctx context.Context, m domain.MoneySetting) error {
	return t.saveMoney(ctx, store.MonthlyBudget, m)
}

func (t *Tracker) loadMoney(ctx context.Context, name string) (domain.MoneySetting, bool) {
	m, ok := store.LoadScalar[domain.MoneySetting](ctx, t.store, name)
	if !ok {
		return domain.MoneySetting{}, false
	}
	m.Currency = currency.Normalize(m.Currency, domain.DefaultCurrency)
	return m, true
}

func (t *Tracker) saveMoney(ctx context.Context, name string, m domain.MoneySetting) error {
	if m.Amount.IsNegative() {
		return fmt.Errorf("%w: negative amount %s", ErrInvalid, m.Amount)
	}
	m.Currency = currency.Normalize(m.Currency, t.opts.DisplayCurrency)

	t.mu.Lock()
	defer t.mu.Unlock()
	return store.SaveScalar(ctx, t.store, name, m)
}
