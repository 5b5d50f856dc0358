package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// GramsPerTroyOunce converts per-ounce metal quotes to per-gram prices.
var GramsPerTroyOunce = decimal.RequireFromString("31.1035")

// GoldQuote is the price of pure gold in a single currency.
type GoldQuote struct {
	Currency      string          `json:"currency"`
	PricePerGram  decimal.Decimal `json:"pricePerGram"`
	PricePerOunce decimal.Decimal `json:"pricePerOunce"`
	PricePerKg    decimal.Decimal `json:"pricePerKg"`
	IsEstimate    bool            `json:"isEstimate"`
	UpdatedAt     time.Time       `json:"lastUpdated"`
}

// NewGoldQuote derives the ounce and kilogram prices from a per-gram price.
func NewGoldQuote(currency string, perGram decimal.Decimal, estimate bool, updatedAt time.Time) GoldQuote {
	return GoldQuote{
		Currency:      currency,
		PricePerGram:  Cents(perGram),
		PricePerOunce: Cents(perGram.Mul(GramsPerTroyOunce)),
		PricePerKg:    Cents(perGram.Mul(decimal.NewFromInt(1000))),
		IsEstimate:    estimate,
		UpdatedAt:     updatedAt,
	}
}
