package engine

import (
	"github.com/shopspring/decimal"

	"github.com/donis3/costcalc/internal/amount"
	"github.com/donis3/costcalc/internal/model"
	"github.com/donis3/costcalc/internal/recompute"
)

// CalculateEndProductCost combines the newest unit cost of r with the cost of p for one finished
// unit holding p.PackageCapacity units of the recipe. A missing recipe or package contributes 0.
func CalculateEndProductCost(r *model.Recipe, p *model.Package) model.EndProductCost {
	quantity := decimal.NewFromInt(1)
	if p != nil && amount.Finite(p.PackageCapacity) && p.PackageCapacity > 0 {
		quantity = decimal.NewFromFloat(p.PackageCapacity)
	}

	recipeCost, recipeTax := decimal.Zero, decimal.Zero
	if r != nil {
		uc := r.LatestUnitCost()
		recipeCost = quantity.Mul(amount.Dec(uc.Cost))
		recipeTax = quantity.Mul(amount.Dec(uc.CostWithTax).Sub(amount.Dec(uc.Cost)))
	}

	packageCost, packageTax := decimal.Zero, decimal.Zero
	if p != nil {
		packageCost = amount.Dec(p.Cost)
		packageTax = amount.Dec(p.Tax)
	}

	total := recipeCost.Add(packageCost)
	return model.EndProductCost{
		RecipeCost:   recipeCost.Round(amount.Places).InexactFloat64(),
		RecipeTax:    recipeTax.Round(amount.Places).InexactFloat64(),
		PackageCost:  packageCost.Round(amount.Places).InexactFloat64(),
		PackageTax:   packageTax.Round(amount.Places).InexactFloat64(),
		Total:        total.Round(amount.Places).InexactFloat64(),
		TotalWithTax: total.Add(recipeTax).Add(packageTax).Round(amount.Places).InexactFloat64(),
	}
}

// endProductsPass reads recipes and packages fresh on every run.
func (e *Engine) endProductsPass() bool {
	changed := false
	for i, ep := range e.state.EndProducts {
		var (
			r *model.Recipe
			p *model.Package
		)
		if j := indexOf(e.state.Recipes, recipeID, ep.RecipeID); j >= 0 {
			r = &e.state.Recipes[j]
		}
		if j := indexOf(e.state.Packages, packageID, ep.PackageID); j >= 0 {
			p = &e.state.Packages[j]
		}

		cost := CalculateEndProductCost(r, p)
		if recompute.Apply(ep.Cost, cost, func(c model.EndProductCost) { e.state.EndProducts[i].Cost = c }) {
			changed = true
		}
	}
	return changed
}
