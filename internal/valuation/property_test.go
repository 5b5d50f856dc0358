package valuation

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/finledger/internal/domain"
)

func TestRegionTableLookup(t *testing.T) {
	tests := []struct {
		location   string
		wantRate   string
		wantRegion string
	}{
		{"San Jose, California", "0.06", "california"},
		{"BANGALORE", "0.09", "bangalore"},
		{"New Delhi", "0.07", "delhi"},
		{"Lisbon", "0.04", ""},
		{"", "0.04", ""},
	}
	for _, tt := range tests {
		rate, region := AppreciationRates.Lookup(tt.location)
		if !rate.Equal(decimal.RequireFromString(tt.wantRate)) || region != tt.wantRegion {
			t.Errorf("Lookup(%q) = %s %q, want %s %q", tt.location, rate, region, tt.wantRate, tt.wantRegion)
		}
	}
}

func TestRegionTableFirstMatchWins(t *testing.T) {
	table := RegionTable{
		Rules:   []RegionRule{rule("york", "1"), rule("new york", "2")},
		Default: decimal.Zero,
	}
	if v, _ := table.Lookup("New York"); !v.Equal(decimal.NewFromInt(1)) {
		t.Errorf("got %s, want the earlier rule", v)
	}
}

func TestAppreciate(t *testing.T) {
	price := decimal.RequireFromString("250000.555")
	if got := Appreciate(price, decimal.RequireFromString("0.09"), 0); !got.Equal(price) {
		t.Errorf("zero years = %s, want %s exactly", got, price)
	}
	if got := Appreciate(decimal.NewFromInt(100000), decimal.RequireFromString("0.06"), 2); !got.Equal(decimal.NewFromInt(112360)) {
		t.Errorf("two years at 6%% = %s, want 112360", got)
	}
	if got := Appreciate(decimal.NewFromInt(1000), decimal.RequireFromString("0.05"), 10); !got.Equal(decimal.RequireFromString("1628.89")) {
		t.Errorf("ten years at 5%% = %s, want 1628.89", got)
	}
}

func TestLandPrice(t *testing.T) {
	snap := domain.ExchangeRateSnapshot{Base: "USD", Rates: map[string]decimal.Decimal{
		"INR": decimal.RequireFromString("83.5"),
	}}

	q := LandPrice("Kothrud, Pune", "USD", snap)
	if q.Region != "pune" || !q.PricePerSqFt.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("quote = %+v", q)
	}
	if !q.PricePerSqMeter.Equal(decimal.RequireFromString("753.48")) || !q.PricePerAcre.Equal(decimal.NewFromInt(3049200)) {
		t.Errorf("derived units = %s / %s", q.PricePerSqMeter, q.PricePerAcre)
	}
	if got := q.Value(decimal.NewFromInt(1000)); !got.Equal(decimal.NewFromInt(70000)) {
		t.Errorf("value = %s", got)
	}

	inr := LandPrice("Pune", "INR", snap)
	if got := inr.Value(decimal.NewFromInt(1000)); !got.Equal(decimal.NewFromInt(5845000)) {
		t.Errorf("INR value = %s", got)
	}

	if q := LandPrice("somewhere rural", "USD", snap); q.Region != "" || !q.PricePerSqFt.Equal(decimal.NewFromInt(20)) {
		t.Errorf("default = %+v", q)
	}
}

func TestLandPriceTierRegions(t *testing.T) {
	tests := []struct {
		location string
		want     int64
	}{
		{"usa_average", 12},
		{"India_Tier1 city", 150},
		{"india_tier2", 50},
		{"plot, india_rural", 5},
		{"Pune india_tier2", 70},
	}
	for _, tt := range tests {
		if v, _ := LandPricesPerSqFtUSD.Lookup(tt.location); !v.Equal(decimal.NewFromInt(tt.want)) {
			t.Errorf("Lookup(%q) = %s, want %d", tt.location, v, tt.want)
		}
	}
}

func TestMetal(t *testing.T) {
	v := domain.MetalVariant{Grams: decimal.NewFromInt(10), Karat: decimal.NewFromInt(22)}
	if got := Metal(v, decimal.NewFromInt(85)); !got.Equal(decimal.RequireFromString("779.17")) {
		t.Errorf("Metal = %s, want 779.17", got)
	}
}
