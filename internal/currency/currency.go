package currency

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/finledger/internal/domain"
)

// Normalize upper-cases and trims a currency code. Empty codes become fallback.
func Normalize(code, fallback string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return strings.ToUpper(strings.TrimSpace(fallback))
	}
	return code
}

// Convert expresses amount in currency to, using rates relative to the snapshot base.
// Same-currency conversion returns amount untouched; otherwise the result is
// amount * rate[to] / rate[from] rounded to cents. Unknown currencies count as rate 1.
func Convert(amount decimal.Decimal, from, to string, snap domain.ExchangeRateSnapshot) decimal.Decimal {
	from = Normalize(from, snap.Base)
	to = Normalize(to, snap.Base)
	if from == to {
		return amount
	}
	// Multiplying first keeps the intermediate exact for the common two-decimal rates.
	return domain.Cents(amount.Mul(snap.Rate(to)).Div(snap.Rate(from)))
}

// Format renders amount for display, e.g. "$1,234.56". Codes unknown to the currency
// table are rendered as "1234.56 XYZ".
func Format(amount decimal.Decimal, code string) string {
	cur := money.GetCurrency(code)
	if cur == nil {
		return amount.StringFixed(2) + " " + code
	}
	minor := amount.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(minor.IntPart())
}

// Known reports whether code is an ISO 4217 currency.
func Known(code string) bool {
	return money.GetCurrency(Normalize(code, "")) != nil
}
