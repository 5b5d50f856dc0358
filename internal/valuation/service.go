package valuation

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/finledger/internal/currency"
	"github.com/mtlprog/finledger/internal/domain"
)

// GoldPricer quotes pure gold per gram in a display currency.
type GoldPricer interface {
	GoldPricePerGram(ctx context.Context, currency string, snap domain.ExchangeRateSnapshot) domain.GoldQuote
}

// Service values assets. It holds no state between calls: every valuation is recomputed from
// the stored attributes, the current date and the given rate snapshot.
type Service struct {
	gold GoldPricer
	now  func() time.Time
}

// NewService creates a valuation service.
func NewService(gold GoldPricer) *Service {
	if gold == nil {
		panic("valuation.NewService: gold pricer must not be nil")
	}
	return &Service{gold: gold, now: time.Now}
}

// Valuate estimates the asset's current value in displayCurrency. An explicit market price
// always wins. Attributes that do not fit the asset type fall back to the declared value,
// with the reason in the breakdown note.
func (s *Service) Valuate(ctx context.Context, a domain.Asset, displayCurrency string, snap domain.ExchangeRateSnapshot) domain.ValuationResult {
	display := currency.Normalize(displayCurrency, snap.Base)
	assetCur := currency.Normalize(a.Currency, domain.DefaultCurrency)
	res := domain.ValuationResult{
		AssetID:   a.ID,
		AssetName: a.Name,
		AssetType: a.Type,
		Currency:  display,
	}
	convert := func(v decimal.Decimal) decimal.Decimal {
		return currency.Convert(v, assetCur, display, snap)
	}

	if a.CurrentMarketPrice != nil {
		res.CurrentValue = convert(*a.CurrentMarketPrice)
		res.Breakdown = domain.ValuationBreakdown{Model: domain.ModelOverride}
		return res
	}

	currentYear := s.now().Year()
	variant, err := a.Variant(currentYear)
	if err != nil {
		return declared(res, convert(a.PurchasePrice), err.Error())
	}

	switch v := variant.(type) {
	case domain.MetalVariant:
		quote := s.gold.GoldPricePerGram(ctx, display, snap)
		res.CurrentValue = Metal(v, quote.PricePerGram)
		res.IsEstimate = quote.IsEstimate
		res.Breakdown = domain.ValuationBreakdown{
			Model:        domain.ModelMetal,
			Grams:        domain.Ptr(v.Grams),
			Karat:        domain.Ptr(v.Karat),
			PricePerGram: domain.Ptr(quote.PricePerGram),
		}
		if v.KaratDefaulted {
			res.Breakdown.Note = "purity not recorded, valued as 24K"
		}

	case domain.VehicleVariant:
		vr := Vehicle(a.PurchasePrice, v, currentYear)
		res.CurrentValue = convert(vr.Value)
		res.IsEstimate = true
		res.Breakdown = domain.ValuationBreakdown{
			Model:           domain.ModelVehicle,
			Age:             domain.Ptr(vr.Age),
			Mileage:         domain.Ptr(vr.Mileage),
			ExpectedMileage: domain.Ptr(vr.ExpectedMileage),
			MileageStatus:   vr.MileageStatus,
			Condition:       vr.Condition,
			BaseFactor:      domain.Ptr(vr.BaseFactor),
			MileageFactor:   domain.Ptr(vr.MileageFactor),
			ConditionFactor: domain.Ptr(vr.ConditionFactor),
			FinalFactor:     domain.Ptr(vr.FinalFactor),
			Depreciation:    domain.Ptr(convert(vr.Depreciation)),
			DepreciationPct: domain.Ptr(vr.DepreciationPct),
		}

	case domain.PropertyVariant:
		return s.property(res, a, v, currentYear, display, snap, convert)

	default:
		res.CurrentValue = convert(a.DeclaredValue())
		res.Breakdown = domain.ValuationBreakdown{Model: domain.ModelDeclared}
	}
	return res
}

func (s *Service) property(
	res domain.ValuationResult,
	a domain.Asset,
	v domain.PropertyVariant,
	currentYear int,
	display string,
	snap domain.ExchangeRateSnapshot,
	convert func(decimal.Decimal) decimal.Decimal,
) domain.ValuationResult {
	switch {
	case a.PurchasePrice.IsPositive() && v.HasYear:
		rate, region := AppreciationRates.Lookup(v.Location)
		years := currentYear - v.PurchaseYear
		value := Appreciate(a.PurchasePrice, rate, years)
		res.CurrentValue = convert(value)
		res.IsEstimate = true
		res.Breakdown = domain.ValuationBreakdown{
			Model:           domain.ModelAppreciation,
			AnnualRate:      domain.Ptr(rate),
			YearsHeld:       domain.Ptr(years),
			Region:          region,
			Appreciation:    domain.Ptr(convert(value.Sub(a.PurchasePrice))),
			AppreciationPct: domain.Ptr(domain.Percent(value.Sub(a.PurchasePrice), a.PurchasePrice)),
		}
		return res

	case v.IsLand && !a.PurchasePrice.IsPositive() && v.AreaSqFt.IsPositive():
		quote := LandPrice(v.Location, display, snap)
		res.CurrentValue = quote.Value(v.AreaSqFt)
		res.IsEstimate = true
		res.Breakdown = domain.ValuationBreakdown{
			Model:           domain.ModelLandEstimate,
			Region:          quote.Region,
			AreaSqFt:        domain.Ptr(v.AreaSqFt),
			PricePerSqFt:    domain.Ptr(quote.PricePerSqFt),
			PricePerSqMeter: domain.Ptr(quote.PricePerSqMeter),
			PricePerAcre:    domain.Ptr(quote.PricePerAcre),
		}
		return res

	case a.PurchasePrice.IsPositive():
		return declared(res, convert(a.PurchasePrice), "purchase year not recorded, appreciation not applied")

	default:
		return declared(res, convert(a.PurchasePrice), "no purchase price or area recorded")
	}
}

func declared(res domain.ValuationResult, value decimal.Decimal, note string) domain.ValuationResult {
	res.CurrentValue = value
	res.Breakdown = domain.ValuationBreakdown{Model: domain.ModelDeclared, Note: note}
	return res
}

// NetWorth values every asset and totals them by type.
func (s *Service) NetWorth(ctx context.Context, assets []domain.Asset, displayCurrency string, snap domain.ExchangeRateSnapshot) domain.NetWorth {
	display := currency.Normalize(displayCurrency, snap.Base)
	results := lo.Map(assets, func(a domain.Asset, _ int) domain.ValuationResult {
		return s.Valuate(ctx, a, display, snap)
	})

	byType := lo.MapValues(
		lo.GroupBy(results, func(r domain.ValuationResult) domain.AssetType { return r.AssetType }),
		func(rs []domain.ValuationResult, _ domain.AssetType) decimal.Decimal { return sumValues(rs) },
	)

	return domain.NetWorth{
		Currency: display,
		Total:    sumValues(results),
		ByType:   byType,
		Assets:   results,
		EstimateCount: lo.CountBy(results, func(r domain.ValuationResult) bool {
			return r.IsEstimate
		}),
	}
}

func sumValues(rs []domain.ValuationResult) decimal.Decimal {
	return lo.Reduce(rs, func(acc decimal.Decimal, r domain.ValuationResult, _ int) decimal.Decimal {
		return acc.Add(r.CurrentValue)
	}, decimal.Zero)
}

// StaleAssets returns the assets not verified within maxAge of now.
func StaleAssets(assets []domain.Asset, now time.Time, maxAge time.Duration) []domain.Asset {
	return lo.Filter(assets, func(a domain.Asset, _ int) bool {
		return a.IsStale(now, maxAge)
	})
}
