// Package amount provides decimal-exact rounding and arithmetic for monetary floats.
package amount

import (
	"math"

	"github.com/shopspring/decimal"
)

// Places is the precision derived costs are rounded to.
const Places = 2

// Round rounds f half away from zero to the given number of decimal places.
// NaN and infinities become zero.
func Round(f float64, places int32) float64 {
	if !Finite(f) {
		return 0
	}
	return decimal.NewFromFloat(f).Round(places).InexactFloat64()
}

// Round2 rounds f to two decimal places.
func Round2(f float64) float64 {
	return Round(f, Places)
}

// Equal2 reports whether a and b are equal once rounded to two decimal places.
func Equal2(a, b float64) bool {
	return decimal.NewFromFloat(Round2(a)).Equal(decimal.NewFromFloat(Round2(b)))
}

// Finite reports whether f is neither NaN nor infinite.
func Finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Sanitize returns f, or zero when f is not a finite number.
func Sanitize(f float64) float64 {
	if !Finite(f) {
		return 0
	}
	return f
}

// Dec converts a float to a decimal, mapping non-finite values to zero.
func Dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(Sanitize(f))
}

// Float converts d back to a float64.
func Float(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// Percent returns value * pct / 100.
func Percent(value, pct float64) decimal.Decimal {
	return Dec(value).Mul(Dec(pct)).Div(decimal.NewFromInt(100))
}
