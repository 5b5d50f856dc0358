package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/mtlprog/finledger/internal/domain"
)

const (
	maxTabulatedAge = 10
	milesPerYear    = 12000
)

// retention is the fraction of the purchase price a car keeps at each age in years.
var retention = []decimal.Decimal{
	decimal.RequireFromString("1.00"),
	decimal.RequireFromString("0.75"),
	decimal.RequireFromString("0.65"),
	decimal.RequireFromString("0.55"),
	decimal.RequireFromString("0.48"),
	decimal.RequireFromString("0.42"),
	decimal.RequireFromString("0.37"),
	decimal.RequireFromString("0.33"),
	decimal.RequireFromString("0.29"),
	decimal.RequireFromString("0.26"),
}

var (
	minRetention = decimal.RequireFromString("0.20")

	highMileageThreshold = decimal.RequireFromString("1.2")
	lowMileageThreshold  = decimal.RequireFromString("0.8")
	highMileageFactor    = decimal.RequireFromString("0.92")
	lowMileageFactor     = decimal.RequireFromString("1.05")

	conditionFactors = map[domain.Condition]decimal.Decimal{
		domain.ConditionExcellent: decimal.RequireFromString("1.12"),
		domain.ConditionGood:      decimal.NewFromInt(1),
		domain.ConditionFair:      decimal.RequireFromString("0.85"),
		domain.ConditionPoor:      decimal.RequireFromString("0.65"),
	}

	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// VehicleResult is the outcome of the depreciation model.
type VehicleResult struct {
	Value           decimal.Decimal
	Age             int
	Mileage         decimal.Decimal
	ExpectedMileage decimal.Decimal
	MileageStatus   string
	Condition       domain.Condition
	BaseFactor      decimal.Decimal
	MileageFactor   decimal.Decimal
	ConditionFactor decimal.Decimal
	FinalFactor     decimal.Decimal
	Depreciation    decimal.Decimal
	DepreciationPct decimal.Decimal
}

// Vehicle depreciates purchasePrice by age, mileage and condition. Age is clamped to
// [0, 10] and drives both the retention table and the expected mileage, so the value is
// constant from age 10 on. The final factor is clamped to [0, 1] and the value to >= 0.
func Vehicle(purchasePrice decimal.Decimal, v domain.VehicleVariant, currentYear int) VehicleResult {
	age := min(max(currentYear-v.PurchaseYear, 0), maxTabulatedAge)

	base := minRetention
	if age < len(retention) {
		base = retention[age]
	}

	expected := decimal.NewFromInt(int64(age * milesPerYear))
	mileage := expected
	if v.Mileage != nil {
		mileage = *v.Mileage
	}

	mileageFactor, status := one, "average"
	switch {
	case mileage.GreaterThan(expected.Mul(highMileageThreshold)):
		mileageFactor, status = highMileageFactor, "high"
	case mileage.LessThan(expected.Mul(lowMileageThreshold)):
		mileageFactor, status = lowMileageFactor, "low"
	}

	cond := v.Condition
	condFactor, ok := conditionFactors[cond]
	if !ok {
		cond, condFactor = domain.ConditionGood, one
	}

	final := base.Mul(mileageFactor).Mul(condFactor)
	final = decimal.Min(decimal.Max(final, decimal.Zero), one)

	value := decimal.Max(domain.Cents(purchasePrice.Mul(final)), decimal.Zero)

	return VehicleResult{
		Value:           value,
		Age:             age,
		Mileage:         mileage,
		ExpectedMileage: expected,
		MileageStatus:   status,
		Condition:       cond,
		BaseFactor:      base,
		MileageFactor:   mileageFactor,
		ConditionFactor: condFactor,
		FinalFactor:     final,
		Depreciation:    purchasePrice.Sub(value),
		DepreciationPct: hundred.Mul(one.Sub(final)).Round(2),
	}
}
