package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/mtlprog/finledger/internal/domain"
)

var fullKarat = decimal.NewFromInt(24)

// Metal values grams of gold of the given karat at pricePerGram, which must already be in
// the display currency.
func Metal(v domain.MetalVariant, pricePerGram decimal.Decimal) decimal.Decimal {
	return domain.Cents(v.Grams.Mul(pricePerGram).Mul(v.Karat).Div(fullKarat))
}
