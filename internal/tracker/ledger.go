package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/finledger/internal/budget"
	"github.com/mtlprog/finledger/internal/currency"
	"github.com/mtlprog/finledger/internal/domain"
	"github.com/mtlprog/finledger/internal/store"
)

// LoadLedger returns the logical ledger: the general ledger merged with the monthly-expense
// mirror, one entry per id. The general ledger wins for ids present in both.
func (t *Tracker) LoadLedger(ctx context.Context) []domain.LedgerEntry {
	return store.Merge(t.ledger.Load(ctx), t.mirror.Load(ctx))
}

// LedgerQuery selects a view of the ledger. Zero fields do not filter.
type LedgerQuery struct {
	Window   *budget.Window
	Kind     domain.EntryKind
	Category string
	// Scanned keeps entries recorded from receipt scans.
	Scanned bool
	// Recurring keeps entries created from recurring payment reminders.
	Recurring bool
}

// QueryLedger returns the ledger entries matching q in stored order.
func (t *Tracker) QueryLedger(ctx context.Context, q LedgerQuery) []domain.LedgerEntry {
	return lo.Filter(t.LoadLedger(ctx), func(e domain.LedgerEntry, _ int) bool {
		switch {
		case q.Window != nil && !q.Window.Contains(e.Date):
			return false
		case q.Kind != "" && e.Kind != q.Kind:
			return false
		case q.Category != "" && !strings.EqualFold(e.Category, q.Category):
			return false
		case q.Scanned && e.SourceScanID == "":
			return false
		case q.Recurring && !e.IsRecurring:
			return false
		}
		return true
	})
}

// SpentByCategory sums the expenses in w by category in the display currency code.
func (t *Tracker) SpentByCategory(ctx context.Context, w budget.Window, code string) map[string]decimal.Decimal {
	display := t.DisplayCurrency(code)
	return budget.SpentByCategory(t.LoadLedger(ctx), w, display, t.rates.Current(ctx, display))
}

// CashFlow totals income and expenses in a window.
type CashFlow struct {
	Window   budget.Window   `json:"window"`
	Currency string          `json:"currency"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Net      decimal.Decimal `json:"net"`
	// Salary is the stored monthly salary converted to Currency, when one is set.
	Salary *decimal.Decimal `json:"salary,omitempty"`
	// SavingsRate is Net as a percentage of Income.
	SavingsRate decimal.Decimal `json:"savingsRate"`
}

// CashFlow sums the ledger entries in w by kind, in the display currency code.
func (t *Tracker) CashFlow(ctx context.Context, w budget.Window, code string) CashFlow {
	display := t.DisplayCurrency(code)
	snap := t.rates.Current(ctx, display)

	cf := CashFlow{Window: w, Currency: display}
	for _, e := range t.LoadLedger(ctx) {
		if !w.Contains(e.Date) {
			continue
		}
		amount := currency.Convert(e.Amount, currency.Normalize(e.Currency, domain.DefaultCurrency), display, snap)
		if e.IsExpense() {
			cf.Expenses = cf.Expenses.Add(amount)
		} else {
			cf.Income = cf.Income.Add(amount)
		}
	}
	cf.Net = cf.Income.Sub(cf.Expenses)
	cf.SavingsRate = domain.Percent(cf.Net, cf.Income)
	if salary, ok := t.Salary(ctx); ok {
		cf.Salary = domain.Ptr(currency.Convert(salary.Amount, salary.Currency, display, snap))
	}
	return cf
}

// UpsertEntry stores e in the general ledger, assigning an id when missing. A copy held by
// the monthly-expense mirror is updated in place so both agree.
func (t *Tracker) UpsertEntry(ctx context.Context, e domain.LedgerEntry) (domain.LedgerEntry, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if id := strings.TrimSpace(e.ID); id != "" {
		if old, ok := lo.Find(t.LoadLedger(ctx), func(o domain.LedgerEntry) bool { return o.ID == id }); ok {
			e = e.Inherit(old)
		}
	}
	e, err := t.normalizeEntry(e)
	if err != nil {
		return domain.LedgerEntry{}, false, err
	}

	stored, created, err := t.ledger.Upsert(ctx, e)
	if err != nil {
		return domain.LedgerEntry{}, false, fmt.Errorf("saving entry: %w", err)
	}
	if _, err := t.mirror.UpdateExisting(ctx, stored); err != nil {
		slog.Warn("updating mirrored entry failed", "id", stored.ID, "error", err)
	}
	return stored, created, nil
}

func (t *Tracker) normalizeEntry(e domain.LedgerEntry) (domain.LedgerEntry, error) {
	if e.Amount.IsNegative() {
		return e, fmt.Errorf("%w: negative amount %s", ErrInvalid, e.Amount)
	}
	e.ID = strings.TrimSpace(e.ID)
	e.Currency = currency.Normalize(e.Currency, t.opts.DisplayCurrency)
	e.Category = strings.TrimSpace(e.Category)
	e.Kind = domain.ParseEntryKind(string(e.Kind))
	if e.Date.IsZero() {
		e.Date = t.today()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = t.now().UTC()
	}
	return e, nil
}

// DeleteEntry removes id from the general ledger and the mirror.
func (t *Tracker) DeleteEntry(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	err := store.DeleteFromAll(ctx, id, t.ledger, t.mirror)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("entry", id)
	}
	return err
}

// AcceptScan records a receipt scan draft as a new expense. The draft's confidence is not
// checked.
func (t *Tracker) AcceptScan(ctx context.Context, d domain.ScanDraft) (domain.LedgerEntry, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	e := d.Entry(t.now())
	stored, _, err := t.UpsertEntry(ctx, e)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	slog.Info("scan accepted", "scan_id", d.ID, "entry_id", stored.ID, "confidence", d.Confidence)
	return stored, nil
}
