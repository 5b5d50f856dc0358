package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

const centPrecision = 2

// SafeParse parses a string into a decimal, returning zero for invalid or empty input.
// European separators are accepted ("0,8", "1.234,56").
func SafeParse(value string) decimal.Decimal {
	d, ok := ParseAmount(value)
	if !ok {
		return decimal.Zero
	}
	return d
}

// ParseAmount parses a user-entered amount. Currency symbols, spaces and thousands
// separators are stripped first. ok is false when nothing numeric remains.
func ParseAmount(value string) (decimal.Decimal, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, false
	}
	value = strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-', r == '+', r == 'e', r == 'E':
			return r
		default:
			return -1
		}
	}, value)
	d, err := decimal.NewFromString(normalizeEuropeanDecimal(value))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Cents rounds to two decimal places (half away from zero).
func Cents(d decimal.Decimal) decimal.Decimal {
	return d.Round(centPrecision)
}

// SafeDivide returns a/b, or zero when b is zero.
func SafeDivide(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.Div(b)
}

// Percent returns 100*part/whole rounded to one decimal place, or zero when whole is zero.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	return SafeDivide(part.Mul(decimal.NewFromInt(100)), whole).Round(1)
}

// normalizeEuropeanDecimal converts European decimal format to standard format.
// "0,8" → "0.8", "1.234,56" → "1234.56", "1,234.56" → "1234.56", "1.5" → "1.5"
func normalizeEuropeanDecimal(s string) string {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0 && lastComma > lastDot:
		// European: dot is thousands, comma is decimal
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastComma >= 0 && lastDot >= 0:
		// US: comma is thousands
		s = strings.ReplaceAll(s, ",", "")
	case lastComma >= 0 && strings.Count(s, ",") == 1 && len(s)-lastComma-1 != 3:
		// Single comma not followed by exactly three digits: decimal separator
		s = strings.Replace(s, ",", ".", 1)
	case lastComma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	}
	return s
}
