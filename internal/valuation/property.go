package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/mtlprog/finledger/internal/domain"
)

// Appreciate compounds purchasePrice at rate for years. Zero years returns purchasePrice
// unchanged; otherwise the result is rounded to cents.
func Appreciate(purchasePrice, rate decimal.Decimal, years int) decimal.Decimal {
	if years <= 0 {
		return purchasePrice
	}
	growth := one.Add(rate)
	factor := one
	for range years {
		factor = factor.Mul(growth)
	}
	return domain.Cents(purchasePrice.Mul(factor))
}

// LandQuote is the regional land price estimate in a display currency.
type LandQuote struct {
	Region          string
	PricePerSqFt    decimal.Decimal
	PricePerSqMeter decimal.Decimal
	PricePerAcre    decimal.Decimal
	// perSqFt is the unrounded price Value multiplies by.
	perSqFt decimal.Decimal
}

// LandPrice looks up the regional price for location and converts it from USD with snap.
func LandPrice(location, currency string, snap domain.ExchangeRateSnapshot) LandQuote {
	usd, region := LandPricesPerSqFtUSD.Lookup(location)
	perSqFt := usd
	if currency != "USD" {
		perSqFt = usd.Mul(snap.Rate(currency)).Div(snap.Rate("USD"))
	}
	return LandQuote{
		Region:          region,
		PricePerSqFt:    domain.Cents(perSqFt),
		PricePerSqMeter: domain.Cents(perSqFt.Mul(domain.SqFtPerSqM)),
		PricePerAcre:    domain.Cents(perSqFt.Mul(domain.SqFtPerAcre)),
		perSqFt:         perSqFt,
	}
}

// Value prices areaSqFt of land.
func (q LandQuote) Value(areaSqFt decimal.Decimal) decimal.Decimal {
	return domain.Cents(q.perSqFt.Mul(areaSqFt))
}
