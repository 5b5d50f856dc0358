package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/finledger/internal/currency"
	"github.com/mtlprog/finledger/internal/domain"
	"github.com/mtlprog/finledger/internal/store"
	"github.com/mtlprog/finledger/internal/valuation"
)

var (
	// ErrNotFound is returned when the referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalid is returned for records rejected on write.
	ErrInvalid = errors.New("invalid record")
	// ErrDuplicateBudget is returned when another budget already uses the name.
	ErrDuplicateBudget = errors.New("budget name already in use")
)

// RateProvider supplies the current exchange-rate snapshot without blocking on the network.
type RateProvider interface {
	Current(ctx context.Context, base string) domain.ExchangeRateSnapshot
}

// Options tune the tracker.
type Options struct {
	// DisplayCurrency is used when a caller passes no currency.
	DisplayCurrency string
	// StaleAssetAge is how long an asset valuation stays trusted after verification.
	StaleAssetAge time.Duration
}

// Tracker is the engine facade used by the HTTP API and the CLI. Reads never fail and never
// write; writes within one process are serialized.
type Tracker struct {
	store   *store.Store
	ledger  *store.Collection[domain.LedgerEntry]
	mirror  *store.Collection[domain.LedgerEntry]
	assets  *store.Collection[domain.Asset]
	budgets *store.Collection[domain.BudgetDefinition]

	rates  RateProvider
	valuer *valuation.Service
	opts   Options
	now    func() time.Time

	mu sync.Mutex
}

// New creates a Tracker.
func New(st *store.Store, rates RateProvider, valuer *valuation.Service, opts Options) *Tracker {
	if st == nil {
		panic("tracker.New: store must not be nil")
	}
	if rates == nil {
		panic("tracker.New: rate provider must not be nil")
	}
	if valuer == nil {
		panic("tracker.New: valuation service must not be nil")
	}
	opts.DisplayCurrency = currency.Normalize(opts.DisplayCurrency, domain.DefaultCurrency)
	if opts.StaleAssetAge <= 0 {
		opts.StaleAssetAge = 30 * 24 * time.Hour
	}
	return &Tracker{
		store:   st,
		ledger:  store.NewCollection[domain.LedgerEntry](st, store.Transactions),
		mirror:  store.NewCollection[domain.LedgerEntry](st, store.MonthlyExpenses),
		assets:  store.NewCollection[domain.Asset](st, store.Assets),
		budgets: store.NewCollection[domain.BudgetDefinition](st, store.Budgets),
		rates:   rates,
		valuer:  valuer,
		opts:    opts,
		now:     time.Now,
	}
}

// DisplayCurrency normalizes code, defaulting to the configured display currency.
func (t *Tracker) DisplayCurrency(code string) string {
	return currency.Normalize(code, t.opts.DisplayCurrency)
}

// Rates returns the current exchange-rate snapshot relative to the display currency code.
func (t *Tracker) Rates(ctx context.Context, code string) domain.ExchangeRateSnapshot {
	return t.rates.Current(ctx, t.DisplayCurrency(code))
}

// Convert expresses amount in from as an amount in to, using the current snapshot.
func (t *Tracker) Convert(ctx context.Context, amount decimal.Decimal, from, to string) decimal.Decimal {
	snap := t.rates.Current(ctx, "")
	return currency.Convert(amount, currency.Normalize(from, domain.DefaultCurrency), t.DisplayCurrency(to), snap)
}

func (t *Tracker) today() domain.Date {
	return domain.DateOf(t.now())
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}
