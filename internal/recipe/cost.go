package recipe

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/donis3/costcalc/internal/amount"
	"github.com/donis3/costcalc/internal/model"
	"github.com/donis3/costcalc/internal/recompute"
)

// CostPlaces is the precision of per-unit recipe costs. It is finer than money rounding because a
// unit is often a single gram or millilitre.
const CostPlaces = 4

// PriceFunc returns a material price in the default currency.
type PriceFunc func(m model.Material) float64

// UnitCost derives the cost of one yield unit of r: the sum of every line amount times its
// material price, divided by the yield. Tax follows each material's tax rate. Lines that point at a
// missing material cost nothing.
func UnitCost(r model.Recipe, materials map[int]model.Material, price PriceFunc, now time.Time) model.UnitCost {
	uc := model.UnitCost{Date: now}
	if !amount.Finite(r.Yield) || r.Yield <= 0 || price == nil {
		return uc
	}

	cost, tax := decimal.Zero, decimal.Zero
	for _, line := range r.Materials {
		m, ok := materials[line.MaterialID]
		if !ok {
			continue
		}
		lineCost := amount.Dec(line.Amount).Mul(amount.Dec(price(m)))
		cost = cost.Add(lineCost)
		tax = tax.Add(amount.Percent(lineCost.InexactFloat64(), m.Tax))
	}

	yield := decimal.NewFromFloat(r.Yield)
	perUnit := cost.Div(yield)
	uc.Cost = perUnit.Round(CostPlaces).InexactFloat64()
	uc.CostWithTax = perUnit.Add(tax.Div(yield)).Round(CostPlaces).InexactFloat64()
	return uc
}

// ApplyUnitCost pushes uc to the head of r.UnitCosts when it differs from the current head.
// An entry stamped with the head's timestamp replaces the head instead of adding a second one.
// It reports whether the recipe changed.
func ApplyUnitCost(r *model.Recipe, uc model.UnitCost, limit int) bool {
	if len(r.UnitCosts) == 0 {
		r.UnitCosts = recompute.PushBounded(nil, uc, limit)
		return true
	}

	head := r.UnitCosts[0]
	if sameCost(head, uc) {
		return false
	}
	if head.Date.Equal(uc.Date) {
		r.UnitCosts = append([]model.UnitCost{uc}, r.UnitCosts[1:]...)
		return true
	}
	r.UnitCosts = recompute.PushBounded(r.UnitCosts, uc, limit)
	return true
}

func sameCost(a, b model.UnitCost) bool {
	return amount.Round(a.Cost, CostPlaces) == amount.Round(b.Cost, CostPlaces) &&
		amount.Round(a.CostWithTax, CostPlaces) == amount.Round(b.CostWithTax, CostPlaces)
}
