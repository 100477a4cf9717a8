package currency

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Format renders amt with the symbol and fraction digits of code.
// Codes unknown to the ISO table fall back to "1234.50 CODE".
func Format(amt float64, code string) string {
	cur := money.GetCurrency(normalize(code))
	if cur == nil {
		return fmt.Sprintf("%.2f %s", amt, normalize(code))
	}
	minor := decimal.NewFromFloat(amt).Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// Fraction returns the number of minor-unit digits of code, 2 when unknown.
func Fraction(code string) int {
	if cur := money.GetCurrency(normalize(code)); cur != nil {
		return cur.Fraction
	}
	return 2
}
