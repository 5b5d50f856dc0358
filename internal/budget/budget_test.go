package budget

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/finledger/internal/domain"
)

var snap = domain.ExchangeRateSnapshot{
	Base: "USD",
	Rates: map[string]decimal.Decimal{
		"USD": decimal.NewFromInt(1),
		"EUR": decimal.RequireFromString("0.92"),
		"INR": decimal.RequireFromString("83.5"),
	},
}

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestMonthWindow(t *testing.T) {
	w := MonthWindow(2026, time.December)
	if w.Start != domain.NewDate(2026, time.December, 1) || w.End != domain.NewDate(2027, time.January, 1) {
		t.Fatalf("window = %v..%v", w.Start, w.End)
	}
	tests := []struct {
		date domain.Date
		want bool
	}{
		{domain.NewDate(2026, time.December, 1), true},
		{domain.NewDate(2026, time.December, 31), true},
		{domain.NewDate(2027, time.January, 1), false},
		{domain.NewDate(2026, time.November, 30), false},
		{domain.Date{}, false},
	}
	for _, tt := range tests {
		if got := w.Contains(tt.date); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.date, got, tt.want)
		}
	}
}

func TestParseMonth(t *testing.T) {
	now := time.Date(2026, time.October, 15, 0, 0, 0, 0, time.UTC)
	w, err := ParseMonth("", now)
	if err != nil || w != MonthWindow(2026, time.October) {
		t.Errorf("empty month = %v, %v", w, err)
	}
	w, err = ParseMonth("2025-02", now)
	if err != nil || w != MonthWindow(2025, time.February) {
		t.Errorf("2025-02 = %v, %v", w, err)
	}
	if _, err := ParseMonth("Feb 2025", now); err == nil {
		t.Error("expected error for malformed month")
	}
}

func TestSpentByCategory(t *testing.T) {
	in := domain.NewDate(2026, time.March, 10)
	entries := []domain.LedgerEntry{
		{ID: "1", Amount: amount("40"), Currency: "USD", Category: "Groceries", Date: in, Kind: domain.KindExpense},
		{ID: "2", Amount: amount("46"), Currency: "EUR", Category: "Groceries", Date: in, Kind: domain.KindExpense},
		{ID: "3", Amount: amount("2000"), Currency: "USD", Category: "Salary", Date: in, Kind: domain.KindIncome},
		{ID: "4", Amount: amount("12"), Category: "", Date: in, Kind: domain.KindExpense},
		{ID: "7", Amount: amount("5"), Currency: "USD", Category: "Other", Date: in, Kind: domain.KindExpense},
		{ID: "5", Amount: amount("99"), Currency: "USD", Category: "Groceries", Date: domain.NewDate(2026, time.April, 1), Kind: domain.KindExpense},
		{ID: "6", Amount: amount("99"), Currency: "USD", Category: "Groceries", Kind: domain.KindExpense},
	}

	spent := SpentByCategory(entries, MonthWindow(2026, time.March), "USD", snap)

	if len(spent) != 3 {
		t.Fatalf("spent = %v", spent)
	}
	if !spent["Groceries"].Equal(amount("90")) {
		t.Errorf("groceries = %s, want 90", spent["Groceries"])
	}
	if !spent[UncategorizedCategory].Equal(amount("12")) {
		t.Errorf("uncategorized = %s, want 12", spent[UncategorizedCategory])
	}
	if !spent["Other"].Equal(amount("5")) {
		t.Errorf("other = %s, want 5", spent["Other"])
	}
	if got := SpentForBudget("Other", spent); !got.Equal(amount("5")) {
		t.Errorf("Other budget = %s, want 5 without uncategorized spending", got)
	}
	if got := SpentForBudget("", spent); !got.IsZero() {
		t.Errorf("blank budget = %s, want 0", got)
	}
	if _, ok := spent["Salary"]; ok {
		t.Error("income must not count as spending")
	}
}

func TestSpentForBudget(t *testing.T) {
	tests := []struct {
		name   string
		budget string
		spent  map[string]decimal.Decimal
		want   string
	}{
		{
			name:   "exact match wins over fuzzy",
			budget: "Groceries",
			spent:  map[string]decimal.Decimal{"Groceries - Walmart": amount("120"), "Groceries": amount("80")},
			want:   "80",
		},
		{
			name:   "category contains budget name",
			budget: "Groceries",
			spent:  map[string]decimal.Decimal{"Groceries - Walmart": amount("120"), "groceries (costco)": amount("30")},
			want:   "150",
		},
		{
			name:   "budget name contains category",
			budget: "Dining Out",
			spent:  map[string]decimal.Decimal{"dining": amount("45.50")},
			want:   "45.5",
		},
		{
			name:   "no match",
			budget: "Travel",
			spent:  map[string]decimal.Decimal{"Groceries": amount("80")},
			want:   "0",
		},
		{
			name:   "empty budget name matches nothing",
			budget: " ",
			spent:  map[string]decimal.Decimal{"Groceries": amount("80")},
			want:   "0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SpentForBudget(tt.budget, tt.spent); !got.Equal(amount(tt.want)) {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestProgressStatus(t *testing.T) {
	tests := []struct {
		spent string
		want  domain.BudgetStatus
	}{
		{"0", domain.BudgetOK},
		{"299.99", domain.BudgetOK},
		{"300", domain.BudgetWarning},
		{"400", domain.BudgetWarning},
		{"400.01", domain.BudgetCritical},
		{"500", domain.BudgetCritical},
		{"500.01", domain.BudgetOver},
	}
	def := domain.BudgetDefinition{ID: "b1", Name: "Groceries", Amount: amount("500")}
	for _, tt := range tests {
		p := Progress(def, amount("500"), amount(tt.spent), "USD")
		if p.Status != tt.want {
			t.Errorf("spent %s: status %s, want %s", tt.spent, p.Status, tt.want)
		}
	}

	p := Progress(def, amount("500"), amount("620"), "USD")
	if !p.Remaining.IsZero() || !p.OverBy.Equal(amount("120")) || !p.PercentUsed.Equal(amount("124")) {
		t.Errorf("over budget progress = %+v", p)
	}
	if p := Progress(def, decimal.Zero, amount("1"), "USD"); p.Status != domain.BudgetOver || !p.PercentUsed.IsZero() {
		t.Errorf("zero limit progress = %+v", p)
	}
}

func TestSummary(t *testing.T) {
	defs := []domain.BudgetDefinition{
		{ID: "b1", Name: "Groceries", Amount: amount("500")},
		{ID: "b2", Name: "Fuel", Amount: amount("92"), Currency: "EUR"},
	}
	spent := map[string]decimal.Decimal{"Groceries": amount("80"), "Groceries - Walmart": amount("120"), "Fuel": amount("150")}

	s := Summary(defs, spent, "USD", snap)

	if len(s.Budgets) != 2 || s.Currency != "USD" {
		t.Fatalf("summary = %+v", s)
	}
	if !s.Budgets[0].Spent.Equal(amount("80")) {
		t.Errorf("groceries spent = %s, want 80", s.Budgets[0].Spent)
	}
	if !s.Budgets[1].Limit.Equal(amount("100")) || s.Budgets[1].Status != domain.BudgetOver {
		t.Errorf("fuel = %+v", s.Budgets[1])
	}
	if !s.TotalLimit.Equal(amount("600")) || !s.TotalSpent.Equal(amount("230")) || s.OverCount != 1 {
		t.Errorf("totals limit %s spent %s over %d", s.TotalLimit, s.TotalSpent, s.OverCount)
	}
	if !s.PercentUsed.Equal(amount("38.3")) {
		t.Errorf("percent = %s, want 38.3", s.PercentUsed)
	}
}
