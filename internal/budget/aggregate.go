package budget

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/finledger/internal/currency"
	"github.com/mtlprog/finledger/internal/domain"
)

// UncategorizedCategory is the key for expenses recorded without a category. No budget
// can match it, so a real "Other" category keeps its own total.
const UncategorizedCategory = ""

var (
	hundred           = decimal.NewFromInt(100)
	warningThreshold  = decimal.NewFromInt(60)
	criticalThreshold = decimal.NewFromInt(80)
)

// SpentByCategory sums the expenses dated inside w by their exact category, converted to
// displayCurrency with snap. Blank categories sum under UncategorizedCategory. Income and
// undated entries are ignored.
func SpentByCategory(entries []domain.LedgerEntry, w Window, displayCurrency string, snap domain.ExchangeRateSnapshot) map[string]decimal.Decimal {
	display := currency.Normalize(displayCurrency, snap.Base)
	spent := make(map[string]decimal.Decimal)
	for _, e := range entries {
		if !e.IsExpense() || !w.Contains(e.Date) {
			continue
		}
		category := strings.TrimSpace(e.Category)
		if category == "" {
			category = UncategorizedCategory
		}
		amount := currency.Convert(e.Amount, currency.Normalize(e.Currency, domain.DefaultCurrency), display, snap)
		spent[category] = spent[category].Add(amount)
	}
	return spent
}

// SpentForBudget returns the spending attributed to the budget called name. An exact category
// match wins outright. Otherwise every category that contains the name, or is contained in
// it, ignoring case, is summed; two overlapping budgets may therefore both count a category.
func SpentForBudget(name string, spent map[string]decimal.Decimal) decimal.Decimal {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return decimal.Zero
	}
	if v, ok := spent[name]; ok {
		return v
	}

	categories := lo.Keys(spent)
	slices.Sort(categories)
	matched := lo.Filter(categories, func(c string, _ int) bool {
		hay := strings.ToLower(strings.TrimSpace(c))
		return hay != "" && (strings.Contains(hay, needle) || strings.Contains(needle, hay))
	})
	if len(matched) > 1 {
		slog.Warn("budget matches several categories, summing all", "budget", name, "categories", matched)
	}
	return lo.Reduce(matched, func(acc decimal.Decimal, c string, _ int) decimal.Decimal {
		return acc.Add(spent[c])
	}, decimal.Zero)
}

// Progress derives usage of limit given spent. Both must be in cur.
func Progress(def domain.BudgetDefinition, limit, spent decimal.Decimal, cur string) domain.BudgetProgress {
	return domain.BudgetProgress{
		BudgetID:    def.ID,
		Name:        def.Name,
		Currency:    cur,
		Limit:       limit,
		Spent:       spent,
		PercentUsed: domain.Percent(spent, limit),
		Remaining:   decimal.Max(limit.Sub(spent), decimal.Zero),
		OverBy:      decimal.Max(spent.Sub(limit), decimal.Zero),
		Status:      status(limit, spent),
	}
}

// status buckets usage: ok below 60%, warning up to 80%, critical up to 100%, over beyond.
// Any spending against a zero limit is over.
func status(limit, spent decimal.Decimal) domain.BudgetStatus {
	if !limit.IsPositive() {
		if spent.IsPositive() {
			return domain.BudgetOver
		}
		return domain.BudgetOK
	}
	pct := spent.Mul(hundred).Div(limit)
	switch {
	case pct.GreaterThan(hundred):
		return domain.BudgetOver
	case pct.GreaterThan(criticalThreshold):
		return domain.BudgetCritical
	case pct.GreaterThanOrEqual(warningThreshold):
		return domain.BudgetWarning
	default:
		return domain.BudgetOK
	}
}

// Summary computes progress for every budget against spent, which must already be in
// displayCurrency. Budget limits are converted from their own currency.
func Summary(defs []domain.BudgetDefinition, spent map[string]decimal.Decimal, displayCurrency string, snap domain.ExchangeRateSnapshot) domain.BudgetSummary {
	display := currency.Normalize(displayCurrency, snap.Base)
	progress := lo.Map(defs, func(def domain.BudgetDefinition, _ int) domain.BudgetProgress {
		limit := currency.Convert(def.Amount, currency.Normalize(def.Currency, domain.DefaultCurrency), display, snap)
		return Progress(def, limit, SpentForBudget(def.Name, spent), display)
	})

	totalLimit := lo.Reduce(progress, func(acc decimal.Decimal, p domain.BudgetProgress, _ int) decimal.Decimal {
		return acc.Add(p.Limit)
	}, decimal.Zero)
	totalSpent := lo.Reduce(progress, func(acc decimal.Decimal, p domain.BudgetProgress, _ int) decimal.Decimal {
		return acc.Add(p.Spent)
	}, decimal.Zero)

	return domain.BudgetSummary{
		Currency:    display,
		Budgets:     progress,
		TotalLimit:  totalLimit,
		TotalSpent:  totalSpent,
		PercentUsed: domain.Percent(totalSpent, totalLimit),
		OverCount: lo.CountBy(progress, func(p domain.BudgetProgress) bool {
			return p.Status == domain.BudgetOver
		}),
	}
}
