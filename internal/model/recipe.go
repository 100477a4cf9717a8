package model

import (
	"slices"
	"time"
)

// RecipeMaterial is one material line of a recipe. Amount is in the material's base unit.
type RecipeMaterial struct {
	Unit       string  `json:"unit"`
	MaterialID int     `json:"materialId"`
	Amount     float64 `json:"amount"`
	Weight     float64 `json:"weight"`
}

// UnitCost is the computed cost of one unit of a recipe's yield.
type UnitCost struct {
	Date        time.Time `json:"date"`
	Cost        float64   `json:"cost"`
	CostWithTax float64   `json:"costWithTax"`
}

// Recipe combines materials into a yield.
type Recipe struct {
	Name      string           `json:"name"`
	Notes     string           `json:"notes"`
	Materials []RecipeMaterial `json:"materials"`
	UnitCosts []UnitCost       `json:"unitCosts"`
	ID        int              `json:"recipeId"`
	ProductID int              `json:"productId"`
	Yield     float64          `json:"yield"`
}

// LatestUnitCost returns the newest unit cost, or a zero cost if none was computed yet.
func (r Recipe) LatestUnitCost() UnitCost {
	if len(r.UnitCosts) == 0 {
		return UnitCost{}
	}
	return r.UnitCosts[0]
}

// Clone returns a copy of the recipe that shares no slices with r.
func (r Recipe) Clone() Recipe {
	r.Materials = slices.Clone(r.Materials)
	r.UnitCosts = slices.Clone(r.UnitCosts)
	return r
}
