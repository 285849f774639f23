package models

import "github.com/shopspring/decimal"

// IsDiscounted reports whether discountPrice undercuts actualPrice.
func IsDiscounted(actualPrice, discountPrice float64) bool {
	return discountPrice > 0 && discountPrice < actualPrice
}

// EffectivePrice is the unit price a customer pays.
func EffectivePrice(actualPrice, discountPrice float64) float64 {
	if IsDiscounted(actualPrice, discountPrice) {
		return discountPrice
	}
	return actualPrice
}

// DiscountPercent returns round((actual - discount) / actual * 100), or 0 when
// the product is not discounted.
func DiscountPercent(actualPrice, discountPrice float64) int {
	if actualPrice <= 0 || !IsDiscounted(actualPrice, discountPrice) {
		return 0
	}
	actual := decimal.NewFromFloat(actualPrice)
	off := actual.Sub(decimal.NewFromFloat(discountPrice))
	return int(off.Div(actual).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}

// LineTotal multiplies a unit price by quantity, rounded to cents.
func LineTotal(unitPrice float64, quantity int) float64 {
	return decimal.NewFromFloat(unitPrice).
		Mul(decimal.NewFromInt(int64(quantity))).
		Round(2).
		InexactFloat64()
}

// SumAmounts adds amounts without accumulating float error.
func SumAmounts(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	return total.Round(2).InexactFloat64()
}

// WithinTolerance reports whether |a - b| <= tolerance.
func WithinTolerance(a, b, tolerance float64) bool {
	diff := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Abs()
	return diff.LessThanOrEqual(decimal.NewFromFloat(tolerance))
}

// ToMinorUnits converts an amount to the smallest currency unit (paise/cents).
func ToMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
