package engine

import (
	"fmt"

	"github.com/donis3/costcalc/internal/common"
	"github.com/donis3/costcalc/internal/model"
	"github.com/donis3/costcalc/internal/recipe"
	"github.com/donis3/costcalc/internal/recompute"
)

// recipesPass refreshes line weights and pushes a new unit cost for every recipe whose material
// costs moved.
func (e *Engine) recipesPass() bool {
	materials := e.materialIndex()
	densities := e.densities()
	now := e.now()

	changed := false
	for i, r := range e.state.Recipes {
		next := r.Clone()
		recipe.Weigh(&next, densities)
		uc := recipe.UnitCost(next, materials, e.defaultPrice, now)
		recipe.ApplyUnitCost(&next, uc, e.settings.UnitCostHistorySize)

		if recompute.Apply(r, next, func(v model.Recipe) { e.state.Recipes[i] = v }) {
			changed = true
		}
	}
	return changed
}

// ScaleRecipe returns recipe id rescaled to yield. The stored recipe is left untouched, so scaling
// back to its persisted yield is always possible.
func (e *Engine) ScaleRecipe(id int, yield float64) (model.Recipe, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := indexOf(e.state.Recipes, recipeID, id)
	if i < 0 {
		return model.Recipe{}, fmt.Errorf("recipe %d: %w", id, common.ErrNotFound)
	}
	return recipe.Rescale(e.state.Recipes[i].Clone(), yield, e.densities())
}
