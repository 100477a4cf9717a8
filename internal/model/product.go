package model

// EndProductCost is the derived cost of one finished unit.
type EndProductCost struct {
	RecipeCost   float64 `json:"recipeCost"`
	RecipeTax    float64 `json:"recipeTax"`
	PackageCost  float64 `json:"packageCost"`
	PackageTax   float64 `json:"packageTax"`
	Total        float64 `json:"total"`
	TotalWithTax float64 `json:"totalWithTax"`
}

// EndProduct binds a recipe to a package.
type EndProduct struct {
	Name           string         `json:"name"`
	CommercialName string         `json:"commercialName"`
	Notes          string         `json:"notes"`
	Cost           EndProductCost `json:"cost"`
	ID             int            `json:"endId"`
	RecipeID       int            `json:"recipeId"`
	PackageID      int            `json:"packageId"`
}
