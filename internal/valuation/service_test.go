package valuation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/finledger/internal/domain"
)

type fixedGold struct {
	perGram  decimal.Decimal
	estimate bool
}

func (f fixedGold) GoldPricePerGram(_ context.Context, currency string, _ domain.ExchangeRateSnapshot) domain.GoldQuote {
	return domain.NewGoldQuote(currency, f.perGram, f.estimate, time.Time{})
}

var testSnapshot = domain.ExchangeRateSnapshot{
	Base: "USD",
	Rates: map[string]decimal.Decimal{
		"USD": decimal.NewFromInt(1),
		"EUR": decimal.RequireFromString("0.92"),
		"INR": decimal.RequireFromString("83.5"),
	},
}

func newTestService() *Service {
	s := NewService(fixedGold{perGram: decimal.NewFromInt(85)})
	s.now = func() time.Time { return time.Date(thisYear, time.June, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func num(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func year(y int) *int { return &y }

func TestValuateCar(t *testing.T) {
	res := newTestService().Valuate(context.Background(), domain.Asset{
		ID:            "car-1",
		Name:          "Hatchback",
		Type:          domain.AssetCar,
		PurchasePrice: decimal.NewFromInt(30000),
		PurchaseYear:  year(thisYear - 3),
		Mileage:       num("36000"),
		Condition:     "Good",
	}, "USD", testSnapshot)

	if res.Breakdown.Model != domain.ModelVehicle || !res.IsEstimate {
		t.Fatalf("model %s estimate %v", res.Breakdown.Model, res.IsEstimate)
	}
	if !res.CurrentValue.Equal(decimal.NewFromInt(16500)) {
		t.Errorf("value = %s, want 16500", res.CurrentValue)
	}
	if !res.Breakdown.Depreciation.Equal(decimal.NewFromInt(13500)) {
		t.Errorf("depreciation = %s, want 13500", res.Breakdown.Depreciation)
	}
	if !res.Breakdown.DepreciationPct.Equal(decimal.NewFromInt(45)) {
		t.Errorf("depreciation percent = %s, want 45", res.Breakdown.DepreciationPct)
	}
}

func TestValuateGold(t *testing.T) {
	svc := newTestService()
	res := svc.Valuate(context.Background(), domain.Asset{
		ID:            "g1",
		Type:          domain.AssetGold,
		PurchasePrice: decimal.NewFromInt(400),
		Quantity:      num("10"),
		Purity:        num("22"),
	}, "USD", testSnapshot)

	if res.Breakdown.Model != domain.ModelMetal {
		t.Fatalf("model = %s", res.Breakdown.Model)
	}
	if !res.CurrentValue.Equal(decimal.RequireFromString("779.17")) {
		t.Errorf("value = %s, want 779.17", res.CurrentValue)
	}
	if res.IsEstimate {
		t.Error("a live quote should not be an estimate")
	}

	res = svc.Valuate(context.Background(), domain.Asset{
		Type:     domain.AssetJewelry,
		Quantity: num("10"),
	}, "USD", testSnapshot)
	if !res.CurrentValue.Equal(decimal.NewFromInt(850)) || res.Breakdown.Note == "" {
		t.Errorf("defaulted purity: value %s note %q", res.CurrentValue, res.Breakdown.Note)
	}
}

func TestValuateGoldEstimateQuote(t *testing.T) {
	svc := NewService(fixedGold{perGram: decimal.NewFromInt(85), estimate: true})
	res := svc.Valuate(context.Background(), domain.Asset{
		Type:     domain.AssetGold,
		Quantity: num("1"),
	}, "USD", testSnapshot)
	if !res.IsEstimate {
		t.Error("estimate quote must mark the valuation as estimate")
	}
}

func TestValuateOverrideWins(t *testing.T) {
	res := newTestService().Valuate(context.Background(), domain.Asset{
		Type:               domain.AssetCar,
		Currency:           "EUR",
		PurchasePrice:      decimal.NewFromInt(30000),
		CurrentMarketPrice: num("500"),
	}, "USD", testSnapshot)

	if res.Breakdown.Model != domain.ModelOverride || res.IsEstimate {
		t.Fatalf("model %s estimate %v", res.Breakdown.Model, res.IsEstimate)
	}
	if !res.CurrentValue.Equal(decimal.RequireFromString("543.48")) {
		t.Errorf("value = %s, want 543.48", res.CurrentValue)
	}
}

func TestValuateInvalidFallsBackToDeclared(t *testing.T) {
	tests := []struct {
		name  string
		asset domain.Asset
	}{
		{"car without year", domain.Asset{Type: domain.AssetCar, PurchasePrice: decimal.NewFromInt(9000)}},
		{"car from the future", domain.Asset{Type: domain.AssetCar, PurchasePrice: decimal.NewFromInt(9000), PurchaseYear: year(thisYear + 1)}},
		{"gold without weight", domain.Asset{Type: domain.AssetGold, PurchasePrice: decimal.NewFromInt(9000)}},
		{"purity above 24K", domain.Asset{Type: domain.AssetGold, PurchasePrice: decimal.NewFromInt(9000), Quantity: num("5"), Purity: num("25")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newTestService().Valuate(context.Background(), tt.asset, "USD", testSnapshot)
			if res.Breakdown.Model != domain.ModelDeclared {
				t.Fatalf("model = %s", res.Breakdown.Model)
			}
			if !res.CurrentValue.Equal(decimal.NewFromInt(9000)) {
				t.Errorf("value = %s", res.CurrentValue)
			}
			if !strings.Contains(res.Breakdown.Note, "invalid asset") {
				t.Errorf("note = %q", res.Breakdown.Note)
			}
		})
	}
}

func TestValuateRealEstate(t *testing.T) {
	svc := newTestService()

	res := svc.Valuate(context.Background(), domain.Asset{
		Type:            domain.AssetRealEstate,
		PurchasePrice:   decimal.NewFromInt(100000),
		PurchaseYear:    year(thisYear - 2),
		StorageLocation: "Los Angeles, California",
	}, "USD", testSnapshot)
	if res.Breakdown.Model != domain.ModelAppreciation || res.Breakdown.Region != "california" {
		t.Fatalf("breakdown = %+v", res.Breakdown)
	}
	if !res.CurrentValue.Equal(decimal.NewFromInt(112360)) {
		t.Errorf("value = %s, want 112360", res.CurrentValue)
	}
	if !res.Breakdown.AppreciationPct.Equal(decimal.RequireFromString("12.4")) {
		t.Errorf("appreciation percent = %s", res.Breakdown.AppreciationPct)
	}

	price := decimal.RequireFromString("250000.555")
	res = svc.Valuate(context.Background(), domain.Asset{
		Type:          domain.AssetRealEstate,
		PurchasePrice: price,
		PurchaseYear:  year(thisYear),
	}, "USD", testSnapshot)
	if !res.CurrentValue.Equal(price) {
		t.Errorf("bought this year: value = %s, want %s", res.CurrentValue, price)
	}

	res = svc.Valuate(context.Background(), domain.Asset{
		Type:          domain.AssetRealEstate,
		PurchasePrice: decimal.NewFromInt(80000),
	}, "USD", testSnapshot)
	if res.Breakdown.Model != domain.ModelDeclared || !res.CurrentValue.Equal(decimal.NewFromInt(80000)) {
		t.Errorf("no year: %s %s", res.Breakdown.Model, res.CurrentValue)
	}
}

func TestValuateLandEstimate(t *testing.T) {
	svc := newTestService()

	res := svc.Valuate(context.Background(), domain.Asset{
		Type:            domain.AssetLand,
		Quantity:        num("1000"),
		Unit:            "sq ft",
		StorageLocation: "Pune",
	}, "INR", testSnapshot)
	if res.Breakdown.Model != domain.ModelLandEstimate || !res.IsEstimate {
		t.Fatalf("model %s estimate %v", res.Breakdown.Model, res.IsEstimate)
	}
	if !res.CurrentValue.Equal(decimal.NewFromInt(5845000)) {
		t.Errorf("value = %s, want 5845000", res.CurrentValue)
	}

	res = svc.Valuate(context.Background(), domain.Asset{
		Type:            domain.AssetLand,
		Quantity:        num("100"),
		Unit:            "sqm",
		StorageLocation: "pune",
	}, "USD", testSnapshot)
	if !res.CurrentValue.Equal(decimal.NewFromInt(75348)) {
		t.Errorf("sqm value = %s, want 75348", res.CurrentValue)
	}

	res = svc.Valuate(context.Background(), domain.Asset{Type: domain.AssetLand}, "USD", testSnapshot)
	if res.Breakdown.Model != domain.ModelDeclared || !res.CurrentValue.IsZero() {
		t.Errorf("empty land: %s %s", res.Breakdown.Model, res.CurrentValue)
	}
}

func TestNetWorth(t *testing.T) {
	assets := []domain.Asset{
		{ID: "a", Type: domain.AssetCash, PurchasePrice: decimal.NewFromInt(1000)},
		{ID: "b", Type: domain.AssetCash, PurchasePrice: decimal.NewFromInt(920), Currency: "EUR"},
		{ID: "c", Type: domain.AssetGold, Quantity: num("10"), Purity: num("22")},
		{ID: "d", Type: domain.AssetCar, PurchasePrice: decimal.NewFromInt(30000), PurchaseYear: year(thisYear - 3), Mileage: num("36000")},
	}

	nw := newTestService().NetWorth(context.Background(), assets, "usd", testSnapshot)

	if nw.Currency != "USD" || len(nw.Assets) != 4 {
		t.Fatalf("currency %s, %d assets", nw.Currency, len(nw.Assets))
	}
	if !nw.ByType[domain.AssetCash].Equal(decimal.NewFromInt(2000)) {
		t.Errorf("cash = %s, want 2000", nw.ByType[domain.AssetCash])
	}
	if !nw.Total.Equal(decimal.RequireFromString("19279.17")) {
		t.Errorf("total = %s, want 19279.17", nw.Total)
	}
	if nw.EstimateCount != 1 {
		t.Errorf("estimates = %d, want 1", nw.EstimateCount)
	}
}

func TestStaleAssets(t *testing.T) {
	now := time.Date(2026, time.March, 31, 18, 0, 0, 0, time.UTC)
	assets := []domain.Asset{
		{ID: "never"},
		{ID: "recent", LastVerifiedDate: domain.NewDate(2026, time.March, 1)},
		{ID: "old", LastVerifiedDate: domain.NewDate(2025, time.September, 1)},
	}
	stale := StaleAssets(assets, now, 180*24*time.Hour)
	if len(stale) != 2 || stale[0].ID != "never" || stale[1].ID != "old" {
		t.Errorf("stale = %v", stale)
	}
}
