package valuation

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RegionRule maps locations containing Match (case-insensitive) to Value.
type RegionRule struct {
	Match string
	Value decimal.Decimal
}

// RegionTable is an ordered list of rules; the first matching rule wins and Default applies
// when none match.
type RegionTable struct {
	Rules   []RegionRule
	Default decimal.Decimal
}

// Lookup returns the value for location and the matched region ("" for the default).
func (t RegionTable) Lookup(location string) (decimal.Decimal, string) {
	loc := strings.ToLower(location)
	for _, r := range t.Rules {
		if r.Match != "" && strings.Contains(loc, r.Match) {
			return r.Value, r.Match
		}
	}
	return t.Default, ""
}

func rule(match, value string) RegionRule {
	return RegionRule{Match: match, Value: decimal.RequireFromString(value)}
}

// AppreciationRates are average annual property appreciation rates by region.
var AppreciationRates = RegionTable{
	Rules: []RegionRule{
		rule("california", "0.06"),
		rule("new york", "0.05"),
		rule("texas", "0.04"),
		rule("florida", "0.05"),
		rule("mumbai", "0.08"),
		rule("delhi", "0.07"),
		rule("bangalore", "0.09"),
		rule("london", "0.04"),
	},
	Default: decimal.RequireFromString("0.04"),
}

// LandPricesPerSqFtUSD are average land prices in USD per square foot by region.
var LandPricesPerSqFtUSD = RegionTable{
	Rules: []RegionRule{
		rule("california", "40"),
		rule("new york", "50"),
		rule("texas", "15"),
		rule("florida", "20"),
		rule("midwest", "8"),
		rule("usa_average", "12"),
		rule("mumbai", "300"),
		rule("delhi", "200"),
		rule("bangalore", "150"),
		rule("hyderabad", "80"),
		rule("chennai", "100"),
		rule("pune", "70"),
		rule("india_tier1", "150"),
		rule("india_tier2", "50"),
		rule("india_rural", "5"),
		rule("london", "400"),
		rule("toronto", "80"),
		rule("sydney", "100"),
	},
	Default: decimal.NewFromInt(20),
}
