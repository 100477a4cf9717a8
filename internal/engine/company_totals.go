package engine

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/donis3/costcalc/internal/amount"
	"github.com/donis3/costcalc/internal/model"
	"github.com/donis3/costcalc/internal/period"
	"github.com/donis3/costcalc/internal/recompute"
)

// trendEpsilon is the smallest move of overhead plus labour that records a trend snapshot.
const trendEpsilon = 0.01

// expensesPass refreshes the per-period cost table of every expense in its own currency.
func (e *Engine) expensesPass() bool {
	changed := false
	for i, exp := range e.state.Expenses {
		cost := period.CalculateCost(exp, e.rates, false)
		if recompute.Apply(exp.Cost, cost, func(c map[model.Period]model.PeriodCost) { e.state.Expenses[i].Cost = c }) {
			changed = true
		}
	}
	return changed
}

// CalculateTotals sums yearly expenses and splits annual wages into labour and salaried buckets,
// all in the default currency. Amounts without a usable rate count at face value. isLabour decides
// which departments count as labour.
func CalculateTotals(expenses []model.Expense, employees []model.Employee, conv period.Converter, isLabour func(string) bool) model.CompanyTotals {
	exp, expTax := decimal.Zero, decimal.Zero
	for _, e := range expenses {
		yearly := period.CalculateCost(e, conv, true)[model.PeriodYear]
		exp = exp.Add(amount.Dec(yearly.Amount))
		expTax = expTax.Add(amount.Dec(yearly.AmountWithTax))
	}

	var labourNet, labourGross, salariesNet, salariesGross decimal.Decimal
	for _, emp := range employees {
		net := amount.Dec(conv.Convert(emp.Net, emp.Currency, "", false).Amount)
		gross := amount.Dec(conv.Convert(emp.Gross, emp.Currency, "", false).Amount)
		if isLabour != nil && isLabour(emp.Department) {
			labourNet = labourNet.Add(net)
			labourGross = labourGross.Add(gross)
			continue
		}
		salariesNet = salariesNet.Add(net)
		salariesGross = salariesGross.Add(gross)
	}

	round := func(d decimal.Decimal) float64 { return d.Round(amount.Places).InexactFloat64() }
	return model.CompanyTotals{
		Currency:        conv.Default(),
		Expenses:        round(exp),
		ExpensesWithTax: round(expTax),
		LabourNet:       round(labourNet),
		LabourGross:     round(labourGross),
		SalariesNet:     round(salariesNet),
		SalariesGross:   round(salariesGross),
	}
}

// ApplyTotals merges next into prev. When the figures are unchanged prev is returned as it is.
// Otherwise next is stamped with now, inherits prev's trend history and records a snapshot when
// overhead plus labour moved by more than trendEpsilon.
func ApplyTotals(prev, next model.CompanyTotals, now time.Time, limit int) (model.CompanyTotals, bool) {
	a, b := prev, next
	a.UpdatedAt, a.History = time.Time{}, nil
	b.UpdatedAt, b.History = time.Time{}, nil
	if !recompute.Changed(a, b) {
		return prev, false
	}

	next.UpdatedAt = now
	next.History = prev.History
	merged := amount.Round2(next.Overhead() + next.Labour())
	if len(prev.History) == 0 || math.Abs(merged-amount.Round2(prev.History[0].Overhead+prev.History[0].Labour)) > trendEpsilon {
		next.History = recompute.PushBounded(prev.History, model.TotalsSnapshot{
			Date:     now,
			Overhead: next.Overhead(),
			Labour:   next.Labour(),
		}, limit)
	}
	return next, true
}

func (e *Engine) totalsPass() bool {
	next := CalculateTotals(e.state.Expenses, e.state.Employees, e.rates, e.settings.IsLabourDepartment)
	totals, changed := ApplyTotals(e.state.Totals, next, e.now(), e.settings.TotalsHistorySize)
	e.state.Totals = totals
	return changed
}
