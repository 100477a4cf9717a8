// Package period converts expense costs between yearly, monthly, weekly, daily and hourly terms.
package period

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/donis3/costcalc/internal/amount"
	"github.com/donis3/costcalc/internal/currency"
	"github.com/donis3/costcalc/internal/model"
)

// coefficient is the number of period units in one year, kept as a fraction so
// weekly figures (365/7) stay exact until the final rounding.
type coefficient struct {
	num int64
	den int64
}

var coefficients = map[model.Period]coefficient{
	model.PeriodYear:  {num: 1, den: 1},
	model.PeriodMonth: {num: 12, den: 1},
	model.PeriodWeek:  {num: 365, den: 7},
	model.PeriodDay:   {num: 365, den: 1},
	model.PeriodHour:  {num: 365 * 24, den: 1},
}

// Coefficient returns how many p fit in one year, or 0 for an unknown period.
func Coefficient(p model.Period) float64 {
	c, ok := coefficients[p]
	if !ok {
		return 0
	}
	return float64(c.num) / float64(c.den)
}

func (c coefficient) mul(d decimal.Decimal) decimal.Decimal {
	return d.Mul(decimal.NewFromInt(c.num)).Div(decimal.NewFromInt(c.den))
}

func (c coefficient) div(d decimal.Decimal) decimal.Decimal {
	return d.Mul(decimal.NewFromInt(c.den)).Div(decimal.NewFromInt(c.num))
}

// Annualize expresses a per-period amount as a yearly amount.
// Unknown periods annualize to 0.
func Annualize(amt float64, p model.Period) float64 {
	c, ok := coefficients[p]
	if !ok {
		return 0
	}
	return amount.Float(c.mul(amount.Dec(amt)))
}

// FromAnnual expresses a yearly amount in the target period. Unknown periods yield 0.
func FromAnnual(annual float64, target model.Period) float64 {
	c, ok := coefficients[target]
	if !ok {
		return 0
	}
	return amount.Float(c.div(amount.Dec(annual)))
}

// Convert re-expresses amt given per from as an amount per to.
func Convert(amt float64, from, to model.Period) float64 {
	return FromAnnual(Annualize(amt, from), to)
}

// Converter is the part of the currency store the annualizer needs. Convert returns amounts it
// has no rate for unchanged.
type Converter interface {
	Default() string
	Convert(amt float64, from, to string, round bool) currency.Conversion
}

// CalculateCost derives the cost of one expense in every supported period.
//
// With convertToLocal set the price is first converted to the default currency; a currency without
// a usable rate is taken at face value, like every other conversion. A malformed expense (unknown
// period, bad currency code, non-numeric price, quantity or tax) yields a cost table with zero
// amounts instead of an error.
func CalculateCost(e model.Expense, conv Converter, convertToLocal bool) map[model.Period]model.PeriodCost {
	code := strings.ToUpper(strings.TrimSpace(e.Currency))
	if convertToLocal && conv != nil {
		code = conv.Default()
	}

	price, ok := localPrice(e, conv, convertToLocal)
	c, validPeriod := coefficients[e.Period]
	if !ok || !validPeriod || !valid(e.Quantity) || !valid(e.Tax) {
		return zeroCost(code)
	}

	perPeriod := amount.Dec(price).Mul(amount.Dec(e.Quantity))
	withTax := perPeriod.Add(amount.Percent(amount.Float(perPeriod), e.Tax))
	annual := c.mul(perPeriod)
	annualWithTax := c.mul(withTax)

	out := make(map[model.Period]model.PeriodCost, len(model.Periods))
	for _, p := range model.Periods {
		target := coefficients[p]
		out[p] = model.PeriodCost{
			Currency:      code,
			Amount:        amount.Float(target.div(annual).Round(amount.Places)),
			AmountWithTax: amount.Float(target.div(annualWithTax).Round(amount.Places)),
		}
	}
	return out
}

func localPrice(e model.Expense, conv Converter, convertToLocal bool) (float64, bool) {
	if !valid(e.Price) || !model.ValidCurrencyCode(e.Currency) {
		return 0, false
	}
	if !convertToLocal || conv == nil {
		return e.Price, true
	}
	return conv.Convert(e.Price, e.Currency, "", false).Amount, true
}

func valid(f float64) bool {
	return amount.Finite(f) && f >= 0
}

func zeroCost(code string) map[model.Period]model.PeriodCost {
	out := make(map[model.Period]model.PeriodCost, len(model.Periods))
	for _, p := range model.Periods {
		out[p] = model.PeriodCost{Currency: code}
	}
	return out
}
