package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRateSnapshot holds rates of each currency relative to Base (Base itself is 1).
type ExchangeRateSnapshot struct {
	Base       string                     `json:"baseCurrency"`
	Rates      map[string]decimal.Decimal `json:"rates"`
	FetchedAt  time.Time                  `json:"fetchedAt"`
	IsFallback bool                       `json:"isFallback"`
}

// Rate returns the rate of code relative to the base. Absent or non-positive rates count as 1.
func (s ExchangeRateSnapshot) Rate(code string) decimal.Decimal {
	if code == s.Base {
		return decimal.NewFromInt(1)
	}
	r, ok := s.Rates[code]
	if !ok || !r.IsPositive() {
		return decimal.NewFromInt(1)
	}
	return r
}

// Fresh reports whether the snapshot is younger than ttl at now.
func (s ExchangeRateSnapshot) Fresh(now time.Time, ttl time.Duration) bool {
	return !s.FetchedAt.IsZero() && now.Sub(s.FetchedAt) < ttl
}

// Rebase expresses the snapshot relative to another currency in the table.
func (s ExchangeRateSnapshot) Rebase(base string) ExchangeRateSnapshot {
	if base == s.Base {
		return s
	}
	pivot := s.Rate(base)
	rates := make(map[string]decimal.Decimal, len(s.Rates)+1)
	rates[s.Base] = decimal.NewFromInt(1).Div(pivot)
	for code, r := range s.Rates {
		rates[code] = r.Div(pivot)
	}
	rates[base] = decimal.NewFromInt(1)
	return ExchangeRateSnapshot{Base: base, Rates: rates, FetchedAt: s.FetchedAt, IsFallback: s.IsFallback}
}

// CachedRates is the persisted form of a snapshot: {rates, timestamp} with the timestamp in
// milliseconds since the epoch.
type CachedRates struct {
	Base      string                 `json:"base,omitempty"`
	Rates     map[string]flexDecimal `json:"rates"`
	Timestamp int64                  `json:"timestamp"`
}

// CachedRatesOf converts a snapshot to its persisted form.
func CachedRatesOf(s ExchangeRateSnapshot) CachedRates {
	rates := make(map[string]flexDecimal, len(s.Rates))
	for code, r := range s.Rates {
		rates[code] = someDecimal(r)
	}
	return CachedRates{Base: s.Base, Rates: rates, Timestamp: s.FetchedAt.UnixMilli()}
}

// Snapshot converts the persisted form back, dropping non-numeric rates. defaultBase is used
// when the record predates the base field.
func (c CachedRates) Snapshot(defaultBase string) ExchangeRateSnapshot {
	base := c.Base
	if base == "" {
		base = defaultBase
	}
	rates := make(map[string]decimal.Decimal, len(c.Rates))
	for code, r := range c.Rates {
		if r.Valid {
			rates[code] = r.Value
		}
	}
	var fetched time.Time
	if c.Timestamp > 0 {
		fetched = time.UnixMilli(c.Timestamp).UTC()
	}
	return ExchangeRateSnapshot{Base: base, Rates: rates, FetchedAt: fetched}
}
