package aggregate

import (
	"math"

	"github.com/shopspring/decimal"
)

// Ratio returns num/den, or 0 when den is 0.
func Ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// Mean returns sum/n, or 0 for an empty collection.
func Mean(sum float64, n int) float64 {
	return Ratio(sum, float64(n))
}

// Percent returns 100*num/den, or 0 when den is 0.
func Percent(num, den float64) float64 {
	return 100 * Ratio(num, den)
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Sum adds up value over records.
func Sum[T any](records []T, value func(T) float64) float64 {
	var total float64
	for _, r := range records {
		total += value(r)
	}
	return total
}

// SumMoney adds up a decimal field exactly.
func SumMoney[T any](
	records []T, value func(T) decimal.Decimal,
) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(value(r))
	}
	return total
}

// MeanMoney returns sum/n rounded to cents, or zero for n == 0.
func MeanMoney(sum decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(int64(n))).Round(2)
}

// Float converts a decimal to float64 for chart output.
func Float(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
