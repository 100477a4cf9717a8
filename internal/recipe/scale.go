// Package recipe rescales recipes to a new yield and derives their per-unit cost.
package recipe

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/donis3/costcalc/internal/amount"
	"github.com/donis3/costcalc/internal/model"
)

// Scaling errors.
var (
	ErrInvalidYield   = errors.New("yield must be a positive number")
	ErrYieldUnchanged = errors.New("yield unchanged")
)

// Rescale returns a copy of r with every material amount scaled to newYield.
// Liquid lines get weight = amount * density, using densities keyed by material id (missing
// densities count as 1); other lines weigh their amount. r itself is never modified, so scaling
// back to the persisted yield restores the original amounts.
func Rescale(r model.Recipe, newYield float64, densities map[int]float64) (model.Recipe, error) {
	if !amount.Finite(newYield) || newYield <= 0 {
		return r, fmt.Errorf("%w: %v", ErrInvalidYield, newYield)
	}
	if !amount.Finite(r.Yield) || r.Yield <= 0 {
		return r, fmt.Errorf("%w: recipe %d has yield %v", ErrInvalidYield, r.ID, r.Yield)
	}
	if newYield == r.Yield {
		return r, ErrYieldUnchanged
	}

	ratio := decimal.NewFromFloat(newYield).Div(decimal.NewFromFloat(r.Yield))
	out := r.Clone()
	for i, line := range out.Materials {
		scaled := amount.Dec(line.Amount).Mul(ratio)
		out.Materials[i].Amount = scaled.InexactFloat64()
		out.Materials[i].Weight = lineWeight(line.Unit, scaled, densities, line.MaterialID)
	}
	out.Yield = newYield
	return out, nil
}

// Weigh fills in the weight of every material line of r in place.
func Weigh(r *model.Recipe, densities map[int]float64) {
	for i, line := range r.Materials {
		r.Materials[i].Weight = lineWeight(line.Unit, amount.Dec(line.Amount), densities, line.MaterialID)
	}
}

func lineWeight(unit string, amt decimal.Decimal, densities map[int]float64, materialID int) float64 {
	if !model.IsLiquidUnit(unit) {
		return amt.InexactFloat64()
	}
	density, ok := densities[materialID]
	if !ok || !amount.Finite(density) || density <= 0 {
		density = 1
	}
	return amt.Mul(decimal.NewFromFloat(density)).Round(4).InexactFloat64()
}
