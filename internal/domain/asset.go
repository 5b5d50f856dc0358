package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidAsset is returned when an asset's attributes do not fit its declared type.
var ErrInvalidAsset = errors.New("invalid asset")

// AssetType classifies a tracked asset.
type AssetType string

const (
	AssetGold        AssetType = "GOLD"
	AssetLand        AssetType = "LAND"
	AssetRealEstate  AssetType = "REAL_ESTATE"
	AssetCar         AssetType = "CAR"
	AssetJewelry     AssetType = "JEWELRY"
	AssetElectronics AssetType = "ELECTRONICS"
	AssetDocuments   AssetType = "DOCUMENTS"
	AssetCash        AssetType = "CASH"
	AssetStocks      AssetType = "STOCKS"
	AssetCrypto      AssetType = "CRYPTO"
	AssetOther       AssetType = "OTHER"
)

var knownAssetTypes = map[AssetType]bool{
	AssetGold: true, AssetLand: true, AssetRealEstate: true, AssetCar: true, AssetJewelry: true,
	AssetElectronics: true, AssetDocuments: true, AssetCash: true, AssetStocks: true,
	AssetCrypto: true, AssetOther: true,
}

// ParseAssetType normalizes s ("real estate", "Real-Estate") and maps unknown values to OTHER.
func ParseAssetType(s string) AssetType {
	norm := strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToUpper(strings.TrimSpace(s)))
	if t := AssetType(norm); knownAssetTypes[t] {
		return t
	}
	return AssetOther
}

// Condition describes the physical state of a vehicle.
type Condition string

const (
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
)

// ParseCondition returns the condition named by s. Empty input is "good".
func ParseCondition(s string) (Condition, bool) {
	switch c := Condition(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return ConditionGood, true
	case ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor:
		return c, true
	default:
		return ConditionGood, false
	}
}

// AreaUnit is the unit a land or property quantity is recorded in.
type AreaUnit string

const (
	UnitSqFt AreaUnit = "sqft"
	UnitSqM  AreaUnit = "sqm"
	UnitAcre AreaUnit = "acre"
)

// Area conversion factors to square feet.
var (
	SqFtPerSqM  = decimal.RequireFromString("10.764")
	SqFtPerAcre = decimal.NewFromInt(43560)
)

// ParseAreaUnit recognizes the common spellings of square feet, square metres and acres.
// Unknown units are treated as square feet.
func ParseAreaUnit(s string) AreaUnit {
	s = strings.ToLower(strings.NewReplacer(" ", "", ".", "", "_", "").Replace(s))
	switch {
	case strings.HasPrefix(s, "acre"):
		return UnitAcre
	case s == "sqm", s == "m2", strings.Contains(s, "meter"), strings.Contains(s, "metre"):
		return UnitSqM
	default:
		return UnitSqFt
	}
}

// ToSqFt converts an area in this unit to square feet.
func (u AreaUnit) ToSqFt(area decimal.Decimal) decimal.Decimal {
	switch u {
	case UnitSqM:
		return area.Mul(SqFtPerSqM)
	case UnitAcre:
		return area.Mul(SqFtPerAcre)
	default:
		return area
	}
}

// Asset is a tracked non-cash item of value. Pointer fields are optional and only meaningful
// for the types that use them; Variant extracts and validates them.
type Asset struct {
	ID                 string
	Name               string
	Type               AssetType
	Description        string
	Notes              string
	PurchasePrice      decimal.Decimal
	CurrentMarketPrice *decimal.Decimal
	Quantity           *decimal.Decimal
	Unit               string
	Purity             *decimal.Decimal
	PurchaseYear       *int
	Mileage            *decimal.Decimal
	Condition          string
	StorageLocation    string
	Currency           string
	LastVerifiedDate   Date
	CreatedAt          time.Time
	UpdatedAt          time.Time

	extra extraFields
}

func (a Asset) RecordID() string { return a.ID }

func (a Asset) WithID(id string) Asset {
	a.ID = id
	return a
}

// DeclaredValue is the market price override if present, the purchase price otherwise.
func (a Asset) DeclaredValue() decimal.Decimal {
	if a.CurrentMarketPrice != nil {
		return *a.CurrentMarketPrice
	}
	return a.PurchasePrice
}

// AssetVariant is the type-specific view of an asset's attributes.
type AssetVariant interface {
	variant()
}

// MetalVariant values gold and jewelry by weight and purity.
type MetalVariant struct {
	Grams          decimal.Decimal
	Karat          decimal.Decimal
	KaratDefaulted bool
}

// VehicleVariant values a car by age, mileage and condition.
type VehicleVariant struct {
	PurchaseYear int
	// Mileage is nil when not recorded; the model then assumes the expected mileage.
	Mileage   *decimal.Decimal
	Condition Condition
}

// PropertyVariant values real estate and land by location and holding period.
type PropertyVariant struct {
	Location     string
	PurchaseYear int
	HasYear      bool
	// AreaSqFt is zero when no area was declared.
	AreaSqFt decimal.Decimal
	IsLand   bool
}

// DeclaredVariant carries no computed model; the declared value is used as is.
type DeclaredVariant struct{}

func (MetalVariant) variant()    {}
func (VehicleVariant) variant()  {}
func (PropertyVariant) variant() {}
func (DeclaredVariant) variant() {}

var fullKarat = decimal.NewFromInt(24)

// Variant builds and validates the type-specific view of the asset. currentYear bounds
// purchase years. Errors wrap ErrInvalidAsset.
func (a Asset) Variant(currentYear int) (AssetVariant, error) {
	switch a.Type {
	case AssetGold, AssetJewelry:
		return a.metalVariant()
	case AssetCar:
		return a.vehicleVariant(currentYear)
	case AssetRealEstate, AssetLand:
		return a.propertyVariant(currentYear)
	default:
		return DeclaredVariant{}, nil
	}
}

func (a Asset) metalVariant() (AssetVariant, error) {
	if a.Quantity == nil {
		return nil, fmt.Errorf("%w: %s without weight", ErrInvalidAsset, a.Type)
	}
	if a.Quantity.IsNegative() {
		return nil, fmt.Errorf("%w: negative weight %s", ErrInvalidAsset, a.Quantity)
	}
	v := MetalVariant{Grams: *a.Quantity, Karat: fullKarat}
	if a.Purity == nil || a.Purity.IsZero() {
		v.KaratDefaulted = true
		return v, nil
	}
	if a.Purity.IsNegative() || a.Purity.GreaterThan(fullKarat) {
		return nil, fmt.Errorf("%w: purity %sK outside (0, 24]", ErrInvalidAsset, a.Purity)
	}
	v.Karat = *a.Purity
	return v, nil
}

func (a Asset) vehicleVariant(currentYear int) (AssetVariant, error) {
	if a.PurchaseYear == nil {
		return nil, fmt.Errorf("%w: car without purchase year", ErrInvalidAsset)
	}
	if *a.PurchaseYear > currentYear {
		return nil, fmt.Errorf("%w: purchase year %d is in the future", ErrInvalidAsset, *a.PurchaseYear)
	}
	if a.Mileage != nil && a.Mileage.IsNegative() {
		return nil, fmt.Errorf("%w: negative mileage %s", ErrInvalidAsset, a.Mileage)
	}
	// Unrecognized conditions are valued as good.
	cond, _ := ParseCondition(a.Condition)
	return VehicleVariant{PurchaseYear: *a.PurchaseYear, Mileage: a.Mileage, Condition: cond}, nil
}

func (a Asset) propertyVariant(currentYear int) (AssetVariant, error) {
	v := PropertyVariant{Location: a.StorageLocation, IsLand: a.Type == AssetLand}
	if a.PurchaseYear != nil {
		if *a.PurchaseYear > currentYear {
			return nil, fmt.Errorf("%w: purchase year %d is in the future", ErrInvalidAsset, *a.PurchaseYear)
		}
		v.PurchaseYear = *a.PurchaseYear
		v.HasYear = true
	}
	if a.Quantity != nil {
		if a.Quantity.IsNegative() {
			return nil, fmt.Errorf("%w: negative area %s", ErrInvalidAsset, a.Quantity)
		}
		v.AreaSqFt = ParseAreaUnit(a.Unit).ToSqFt(*a.Quantity)
	}
	return v, nil
}

// Inherit fills what a leaves unset from old, the stored copy of the same asset: keys the
// asset does not model, the verification date and the creation time.
func (a Asset) Inherit(old Asset) Asset {
	a.extra = old.extra.with(a.extra)
	if a.LastVerifiedDate.IsZero() {
		a.LastVerifiedDate = old.LastVerifiedDate
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = old.CreatedAt
	}
	return a
}

// IsStale reports whether the asset has not been verified within maxAge of now.
func (a Asset) IsStale(now time.Time, maxAge time.Duration) bool {
	if a.LastVerifiedDate.IsZero() {
		return true
	}
	return DateOf(now).Time().Sub(a.LastVerifiedDate.Time()) > maxAge
}

type assetJSON struct {
	ID                 flexString  `json:"id"`
	Name               string      `json:"name"`
	Type               string      `json:"type"`
	Description        string      `json:"description,omitempty"`
	Notes              string      `json:"notes,omitempty"`
	PurchasePrice      flexDecimal `json:"purchasePrice"`
	CurrentMarketPrice flexDecimal `json:"currentMarketPrice"`
	Quantity           flexDecimal `json:"quantity"`
	Unit               string      `json:"unit,omitempty"`
	Purity             flexDecimal `json:"purity"`
	PurchaseYear       flexDecimal `json:"purchaseYear"`
	Mileage            flexDecimal `json:"mileage"`
	Condition          string      `json:"condition,omitempty"`
	StorageLocation    string      `json:"storageLocation,omitempty"`
	Currency           string      `json:"currency,omitempty"`
	LastVerifiedDate   Date        `json:"lastVerifiedDate"`
	CreatedAt          flexTime    `json:"createdAt"`
	UpdatedAt          flexTime    `json:"updatedAt,omitzero"`
}

var assetKeys = jsonKeys(assetJSON{})

func (a Asset) MarshalJSON() ([]byte, error) {
	w := assetJSON{
		ID:                 flexString(a.ID),
		Name:               a.Name,
		Type:               string(a.Type),
		Description:        a.Description,
		Notes:              a.Notes,
		PurchasePrice:      someDecimal(a.PurchasePrice),
		CurrentMarketPrice: optionalDecimal(a.CurrentMarketPrice),
		Quantity:           optionalDecimal(a.Quantity),
		Unit:               a.Unit,
		Purity:             optionalDecimal(a.Purity),
		Mileage:            optionalDecimal(a.Mileage),
		Condition:          a.Condition,
		StorageLocation:    a.StorageLocation,
		Currency:           a.Currency,
		LastVerifiedDate:   a.LastVerifiedDate,
		CreatedAt:          flexTime(a.CreatedAt),
		UpdatedAt:          flexTime(a.UpdatedAt),
	}
	if a.PurchaseYear != nil {
		w.PurchaseYear = someDecimal(decimal.NewFromInt(int64(*a.PurchaseYear)))
	}
	data, err := json.Marshal(w)
	if err != nil {
		return nil, err
	}
	return a.extra.appendTo(data), nil
}

func (a *Asset) UnmarshalJSON(b []byte) error {
	var w assetJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*a = Asset{
		ID:                 string(w.ID),
		Name:               w.Name,
		Type:               ParseAssetType(w.Type),
		Description:        w.Description,
		Notes:              w.Notes,
		PurchasePrice:      w.PurchasePrice.Value,
		CurrentMarketPrice: w.CurrentMarketPrice.ptr(),
		Quantity:           w.Quantity.ptr(),
		Unit:               w.Unit,
		Purity:             w.Purity.ptr(),
		Mileage:            w.Mileage.ptr(),
		Condition:          w.Condition,
		StorageLocation:    w.StorageLocation,
		Currency:           strings.ToUpper(strings.TrimSpace(w.Currency)),
		LastVerifiedDate:   w.LastVerifiedDate,
		CreatedAt:          time.Time(w.CreatedAt),
		UpdatedAt:          time.Time(w.UpdatedAt),
		extra:              captureExtra(b, assetKeys),
	}
	if w.PurchaseYear.Valid {
		year := int(w.PurchaseYear.Value.IntPart())
		a.PurchaseYear = &year
	}
	return nil
}
