package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Validation errors. Callers match them with errors.Is; the wrapped text names the field.
var (
	ErrInvalidMaterial   = errors.New("invalid material")
	ErrInvalidRecipe     = errors.New("invalid recipe")
	ErrInvalidPackage    = errors.New("invalid package")
	ErrInvalidEndProduct = errors.New("invalid end product")
	ErrInvalidExpense    = errors.New("invalid expense")
	ErrInvalidEmployee   = errors.New("invalid employee")
	ErrInvalidCurrency   = errors.New("invalid currency code")
	ErrInvalidPeriod     = errors.New("invalid period")
)

func validNumber(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func nonNegative(f float64) bool {
	return validNumber(f) && f >= 0
}

// ValidCurrencyCode reports whether code has the shape of a currency code.
func ValidCurrencyCode(code string) bool {
	return len(strings.TrimSpace(code)) >= 2
}

// Validate checks the material fields.
func (m *Material) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidMaterial)
	}
	if strings.TrimSpace(m.Unit) == "" {
		return fmt.Errorf("%w: unit is required", ErrInvalidMaterial)
	}
	if !ValidCurrencyCode(m.Currency) {
		return fmt.Errorf("%w: %w %q", ErrInvalidMaterial, ErrInvalidCurrency, m.Currency)
	}
	if !nonNegative(m.Price) {
		return fmt.Errorf("%w: price must be a non-negative number", ErrInvalidMaterial)
	}
	if !nonNegative(m.Tax) {
		return fmt.Errorf("%w: tax must be a non-negative number", ErrInvalidMaterial)
	}
	if !nonNegative(m.Density) {
		return fmt.Errorf("%w: density must be a non-negative number", ErrInvalidMaterial)
	}
	return nil
}

// Validate checks the recipe fields and its material lines.
func (r *Recipe) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRecipe)
	}
	if !validNumber(r.Yield) || r.Yield <= 0 {
		return fmt.Errorf("%w: yield must be positive, got %v", ErrInvalidRecipe, r.Yield)
	}
	for i, line := range r.Materials {
		if line.MaterialID < 0 {
			return fmt.Errorf("%w: material line %d has no material", ErrInvalidRecipe, i)
		}
		if !nonNegative(line.Amount) {
			return fmt.Errorf("%w: material line %d amount must be a non-negative number", ErrInvalidRecipe, i)
		}
	}
	return nil
}

// Validate checks the package fields and its items.
func (p *Package) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPackage)
	}
	switch p.ProductType {
	case ProductTypeLiquid, ProductTypeSolid:
	default:
		return fmt.Errorf("%w: unknown product type %q", ErrInvalidPackage, p.ProductType)
	}
	if !nonNegative(p.PackageCapacity) {
		return fmt.Errorf("%w: package capacity must be a non-negative number", ErrInvalidPackage)
	}
	for i, item := range p.Items {
		if err := item.validate(); err != nil {
			return fmt.Errorf("%w: item %d: %w", ErrInvalidPackage, i, err)
		}
	}
	return nil
}

func (i *PackageItem) validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return errors.New("name is required")
	}
	switch i.PackageType {
	case PackageTypeBox, PackageTypeContainer, PackageTypeOther:
	default:
		return fmt.Errorf("unknown package type %q", i.PackageType)
	}
	if !ValidCurrencyCode(i.ItemCurrency) {
		return fmt.Errorf("%w %q", ErrInvalidCurrency, i.ItemCurrency)
	}
	if !nonNegative(i.ItemPrice) {
		return errors.New("price must be a non-negative number")
	}
	if !nonNegative(i.ItemTax) {
		return errors.New("tax must be a non-negative number")
	}
	if i.BoxCapacity < 0 {
		return errors.New("box capacity cannot be negative")
	}
	return nil
}

// Validate checks the end product fields.
func (e *EndProduct) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidEndProduct)
	}
	if e.RecipeID < 0 || e.PackageID < 0 {
		return fmt.Errorf("%w: recipe and package are required", ErrInvalidEndProduct)
	}
	return nil
}

// Validate checks the expense fields.
func (e *Expense) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidExpense)
	}
	if !e.Period.Valid() {
		return fmt.Errorf("%w: %w %q", ErrInvalidExpense, ErrInvalidPeriod, e.Period)
	}
	if !ValidCurrencyCode(e.Currency) {
		return fmt.Errorf("%w: %w %q", ErrInvalidExpense, ErrInvalidCurrency, e.Currency)
	}
	if !nonNegative(e.Price) || !nonNegative(e.Quantity) || !nonNegative(e.Tax) {
		return fmt.Errorf("%w: price, quantity and tax must be non-negative numbers", ErrInvalidExpense)
	}
	return nil
}

// Validate checks the employee fields.
func (e *Employee) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidEmployee)
	}
	if !strings.Contains(e.Email, "@") {
		return fmt.Errorf("%w: email %q is not valid", ErrInvalidEmployee, e.Email)
	}
	if !ValidCurrencyCode(e.Currency) {
		return fmt.Errorf("%w: %w %q", ErrInvalidEmployee, ErrInvalidCurrency, e.Currency)
	}
	if !nonNegative(e.Gross) || !nonNegative(e.Net) {
		return fmt.Errorf("%w: gross and net must be non-negative numbers", ErrInvalidEmployee)
	}
	return nil
}
