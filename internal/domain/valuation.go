package domain

import "github.com/shopspring/decimal"

// ValuationModel names the formula that produced a valuation.
type ValuationModel string

const (
	ModelOverride     ValuationModel = "override"
	ModelDeclared     ValuationModel = "declared"
	ModelMetal        ValuationModel = "metal"
	ModelVehicle      ValuationModel = "vehicle"
	ModelAppreciation ValuationModel = "appreciation"
	ModelLandEstimate ValuationModel = "land_estimate"
)

// ValuationBreakdown explains how a value was derived. Only the fields relevant to Model are set.
type ValuationBreakdown struct {
	Model ValuationModel `json:"model"`
	Note  string         `json:"note,omitempty"`

	// metal
	Grams        *decimal.Decimal `json:"grams,omitempty"`
	Karat        *decimal.Decimal `json:"karat,omitempty"`
	PricePerGram *decimal.Decimal `json:"pricePerGram,omitempty"`

	// vehicle
	Age             *int             `json:"age,omitempty"`
	Mileage         *decimal.Decimal `json:"mileage,omitempty"`
	ExpectedMileage *decimal.Decimal `json:"expectedMileage,omitempty"`
	MileageStatus   string           `json:"mileageStatus,omitempty"`
	Condition       Condition        `json:"condition,omitempty"`
	BaseFactor      *decimal.Decimal `json:"baseFactor,omitempty"`
	MileageFactor   *decimal.Decimal `json:"mileageFactor,omitempty"`
	ConditionFactor *decimal.Decimal `json:"conditionFactor,omitempty"`
	FinalFactor     *decimal.Decimal `json:"finalFactor,omitempty"`
	Depreciation    *decimal.Decimal `json:"depreciation,omitempty"`
	DepreciationPct *decimal.Decimal `json:"depreciationPercent,omitempty"`

	// real estate and land
	AnnualRate      *decimal.Decimal `json:"annualRate,omitempty"`
	YearsHeld       *int             `json:"yearsHeld,omitempty"`
	Appreciation    *decimal.Decimal `json:"appreciation,omitempty"`
	AppreciationPct *decimal.Decimal `json:"appreciationPercent,omitempty"`
	Region          string           `json:"region,omitempty"`
	AreaSqFt        *decimal.Decimal `json:"areaSqFt,omitempty"`
	PricePerSqFt    *decimal.Decimal `json:"pricePerSqFt,omitempty"`
	PricePerSqMeter *decimal.Decimal `json:"pricePerSqMeter,omitempty"`
	PricePerAcre    *decimal.Decimal `json:"pricePerAcre,omitempty"`
}

// ValuationResult is an asset's estimated current value in a display currency.
type ValuationResult struct {
	AssetID      string             `json:"assetId"`
	AssetName    string             `json:"assetName"`
	AssetType    AssetType          `json:"assetType"`
	Currency     string             `json:"currency"`
	CurrentValue decimal.Decimal    `json:"currentValue"`
	IsEstimate   bool               `json:"isEstimate"`
	Breakdown    ValuationBreakdown `json:"breakdown"`
}

// NetWorth sums the valuations of every tracked asset.
type NetWorth struct {
	Currency      string                        `json:"currency"`
	Total         decimal.Decimal               `json:"total"`
	ByType        map[AssetType]decimal.Decimal `json:"byType"`
	Assets        []ValuationResult             `json:"assets"`
	EstimateCount int                           `json:"estimateCount"`
}

// Ptr returns a pointer to v, for optional breakdown fields.
func Ptr[T any](v T) *T { return &v }
