package money

import (
	"github.com/shopspring/decimal"
)

// All amounts are stored as integer paise (1/100 INR)

// DiscountPercentage returns the whole-number discount from original to current.
// Integer floor division; never rounds up.
func DiscountPercentage(original, current int64) int {
	if original <= 0 || original <= current {
		return 0
	}
	return int((original - current) * 100 / original)
}

// Savings is original - current, or 0 when there is nothing saved
func Savings(original, current int64) int64 {
	if current >= original {
		return 0
	}
	return original - current
}

// ToMajorUnits converts paise to rupees without float error
func ToMajorUnits(paise int64) decimal.Decimal {
	return decimal.New(paise, -2)
}

// ToMajorFloat is ToMajorUnits for JSON responses that expect a number
func ToMajorFloat(paise int64) float64 {
	f, _ := ToMajorUnits(paise).Float64()
	return f
}

// FormatINR renders paise as "₹1234.50" for notification text
func FormatINR(paise int64) string {
	return "₹" + ToMajorUnits(paise).StringFixed(2)
}
