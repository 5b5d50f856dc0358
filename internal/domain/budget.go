package domain

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// BudgetDefinition caps monthly spending for the category named by Name.
type BudgetDefinition struct {
	ID     string
	Name   string
	Amount decimal.Decimal
	// Currency of Amount; empty means the default currency.
	Currency string

	extra extraFields
}

func (b BudgetDefinition) RecordID() string { return b.ID }

func (b BudgetDefinition) WithID(id string) BudgetDefinition {
	b.ID = id
	return b
}

type budgetJSON struct {
	ID       flexString  `json:"id"`
	Name     string      `json:"name"`
	Amount   flexDecimal `json:"amount"`
	Currency string      `json:"currency,omitempty"`
	// Category is the legacy key for the budget name.
	Category string `json:"category,omitempty"`
}

var budgetKeys = jsonKeys(budgetJSON{})

func (b BudgetDefinition) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(budgetJSON{
		ID:       flexString(b.ID),
		Name:     b.Name,
		Amount:   someDecimal(b.Amount),
		Currency: b.Currency,
	})
	if err != nil {
		return nil, err
	}
	return b.extra.appendTo(data), nil
}

func (b *BudgetDefinition) UnmarshalJSON(data []byte) error {
	var w budgetJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	name := strings.TrimSpace(w.Name)
	if name == "" {
		name = strings.TrimSpace(w.Category)
	}
	*b = BudgetDefinition{
		ID:       string(w.ID),
		Name:     name,
		Amount:   w.Amount.Value,
		Currency: strings.ToUpper(strings.TrimSpace(w.Currency)),
		extra:    captureExtra(data, budgetKeys),
	}
	return nil
}

// BudgetStatus buckets budget usage.
type BudgetStatus string

const (
	BudgetOK       BudgetStatus = "ok"
	BudgetWarning  BudgetStatus = "warning"
	BudgetCritical BudgetStatus = "critical"
	BudgetOver     BudgetStatus = "over"
)

// BudgetProgress is derived at read time and never stored.
type BudgetProgress struct {
	BudgetID    string          `json:"budgetId"`
	Name        string          `json:"name"`
	Currency    string          `json:"currency"`
	Limit       decimal.Decimal `json:"limit"`
	Spent       decimal.Decimal `json:"spent"`
	PercentUsed decimal.Decimal `json:"percentUsed"`
	Remaining   decimal.Decimal `json:"remaining"`
	OverBy      decimal.Decimal `json:"overBy"`
	Status      BudgetStatus    `json:"status"`
}

// BudgetSummary totals every budget in a window.
type BudgetSummary struct {
	Currency    string           `json:"currency"`
	Budgets     []BudgetProgress `json:"budgets"`
	TotalLimit  decimal.Decimal  `json:"totalLimit"`
	TotalSpent  decimal.Decimal  `json:"totalSpent"`
	PercentUsed decimal.Decimal  `json:"percentUsed"`
	OverCount   int              `json:"overCount"`
}
