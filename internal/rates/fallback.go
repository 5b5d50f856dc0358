package rates

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/finledger/internal/domain"
)

// fallbackRates are approximate USD-relative rates used when no fetched snapshot exists.
var fallbackRates = map[string]decimal.Decimal{
	"USD": decimal.NewFromInt(1),
	"INR": decimal.RequireFromString("83.5"),
	"EUR": decimal.RequireFromString("0.92"),
	"GBP": decimal.RequireFromString("0.79"),
	"CAD": decimal.RequireFromString("1.36"),
	"AUD": decimal.RequireFromString("1.54"),
}

// Fallback returns the static table expressed relative to base, flagged IsFallback.
func Fallback(base string, now time.Time) domain.ExchangeRateSnapshot {
	rates := make(map[string]decimal.Decimal, len(fallbackRates))
	for code, r := range fallbackRates {
		rates[code] = r
	}
	s := domain.ExchangeRateSnapshot{Base: "USD", Rates: rates, FetchedAt: now, IsFallback: true}
	return s.Rebase(base)
}
