package currency

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/finledger/internal/domain"
)

func snapshot() domain.ExchangeRateSnapshot {
	return domain.ExchangeRateSnapshot{Base: "USD", Rates: map[string]decimal.Decimal{
		"USD": decimal.NewFromInt(1),
		"INR": decimal.RequireFromString("83.5"),
		"EUR": decimal.RequireFromString("0.92"),
		"GBP": decimal.RequireFromString("0.79"),
		"CAD": decimal.RequireFromString("1.36"),
		"AUD": decimal.RequireFromString("1.54"),
	}}
}

func TestConvert(t *testing.T) {
	snap := snapshot()
	tests := []struct {
		name     string
		amount   string
		from, to string
		want     string
	}{
		{"usd to inr", "100", "USD", "INR", "8350"},
		{"inr to usd", "8350", "INR", "USD", "100"},
		{"eur to gbp", "50", "EUR", "GBP", "42.93"},
		{"lower-case codes", "10", "usd", " eur ", "9.2"},
		{"unknown currency counts as base", "10", "XYZ", "USD", "10"},
		{"empty from means base", "10", "", "EUR", "9.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Convert(decimal.RequireFromString(tt.amount), tt.from, tt.to, snap)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Convert(%s %s -> %s) = %s, want %s", tt.amount, tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestConvertIdentityIsExact(t *testing.T) {
	snap := snapshot()
	for _, a := range []string{"0.001", "123.456789", "-5", "1e-9", "99999999999.999"} {
		amount := decimal.RequireFromString(a)
		for code := range snap.Rates {
			if got := Convert(amount, code, code, snap); !got.Equal(amount) {
				t.Errorf("Convert(%s, %s, %s) = %s, want unchanged", a, code, code, got)
			}
		}
	}
}

func TestConvertRoundTrip(t *testing.T) {
	snap := snapshot()
	tolerance := decimal.RequireFromString("0.01")
	amounts := []string{"0.01", "0.99", "1", "12.34", "100", "999.99", "1234.56", "75000", "1000000.01"}
	comparable := []string{"USD", "EUR", "GBP", "CAD", "AUD"}

	check := func(a decimal.Decimal, x, y string) {
		t.Helper()
		back := Convert(Convert(a, x, y, snap), y, x, snap)
		if back.Sub(a).Abs().GreaterThan(tolerance) {
			t.Errorf("%s %s -> %s -> %s = %s, drift %s", a, x, y, x, back, back.Sub(a).Abs())
		}
	}

	for _, s := range amounts {
		a := decimal.RequireFromString(s)
		for _, x := range comparable {
			for _, y := range comparable {
				check(a, x, y)
			}
			// Routing through a currency with a much smaller unit loses nothing.
			check(a, x, "INR")
		}
	}
}

// A weak to strong route rounds away up to half a cent of the strong currency, which is
// worth many cents of the weak one on the way back.
func TestConvertRoundTripThroughStrongerCurrency(t *testing.T) {
	snap := snapshot()
	back := Convert(Convert(decimal.NewFromInt(1), "INR", "USD", snap), "USD", "INR", snap)
	if !back.Equal(decimal.RequireFromString("0.84")) {
		t.Errorf("1 INR -> USD -> INR = %s, want 0.84", back)
	}

	halfCent := decimal.RequireFromString("0.005")
	for _, s := range []string{"1", "12.34", "999.99", "75000"} {
		a := decimal.RequireFromString(s)
		for _, y := range []string{"USD", "EUR", "GBP"} {
			bound := halfCent.Mul(snap.Rate("INR")).Div(snap.Rate(y)).Add(halfCent)
			back := Convert(Convert(a, "INR", y, snap), y, "INR", snap)
			if drift := back.Sub(a).Abs(); drift.GreaterThan(bound) {
				t.Errorf("%s INR -> %s -> INR drift %s exceeds %s", a, y, drift, bound)
			}
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize(" eur ", "USD"); got != "EUR" {
		t.Errorf("Normalize = %q", got)
	}
	if got := Normalize("", "usd"); got != "USD" {
		t.Errorf("Normalize empty = %q", got)
	}
}

func TestFormat(t *testing.T) {
	if got := Format(decimal.RequireFromString("1234.567"), "USD"); got != "$1,234.57" {
		t.Errorf("Format USD = %q", got)
	}
	if got := Format(decimal.RequireFromString("12.5"), "XYZ"); got != "12.50 XYZ" {
		t.Errorf("Format unknown = %q", got)
	}
	if !Known("inr") || Known("XYZ") {
		t.Error("Known misreports")
	}
}
