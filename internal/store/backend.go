package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// ErrNotFound indicates that no collection held the requested record.
var ErrNotFound = errors.New("record not found")

// Collection names as persisted by existing installations.
const (
	Transactions    = "transactions_v1"
	MonthlyExpenses = "monthly_expenses_v1"
	Budgets         = "budgets_v1"
	Assets          = "assets_v1"
	RatesCache      = "exchange_rates_cache"
	Salary          = "user_salary_v1"
	MonthlyBudget   = "user_budget_v1"
	MarketPrices    = "market_prices_cache"
)

// Backend persists whole collections as JSON documents.
// Read returns nil data and a nil error for a collection that was never written.
type Backend interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
}

var validName = regexp.MustCompile(`^[a-z0-9_]+$`)

func checkName(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("invalid collection name %q", name)
	}
	return nil
}
