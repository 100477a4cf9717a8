package engine

import (
	"fmt"
	"strings"

	"github.com/donis3/costcalc/internal/common"
	"github.com/donis3/costcalc/internal/currency"
	"github.com/donis3/costcalc/internal/model"
)

// Write-boundary checks shared by the Dispatch functions and Import. Each prepare function
// validates one entity against the settings and normalizes its currency codes in place.

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (e *Engine) checkCurrency(code string) error {
	if !e.settings.CurrencyEnabled(code) {
		return fmt.Errorf("%w: %s", currency.ErrDisabled, code)
	}
	return nil
}

func (e *Engine) checkUnit(unit string) error {
	if !e.settings.UnitAllowed(unit) {
		return fmt.Errorf("%w: %s", ErrUnitNotAllowed, unit)
	}
	return nil
}

func (e *Engine) prepareMaterial(m *model.Material) error {
	if err := m.Validate(); err != nil {
		return err
	}
	m.Currency = normalizeCode(m.Currency)
	if err := e.checkUnit(m.Unit); err != nil {
		return err
	}
	return e.checkCurrency(m.Currency)
}

func (e *Engine) prepareRecipe(r *model.Recipe) error {
	if err := r.Validate(); err != nil {
		return err
	}
	for _, line := range r.Materials {
		if err := e.checkUnit(line.Unit); err != nil {
			return err
		}
	}
	return nil
}

// preparePackage rewrites item currencies, so callers must pass a package they own.
func (e *Engine) preparePackage(p *model.Package) error {
	if err := p.Validate(); err != nil {
		return err
	}
	for i := range p.Items {
		p.Items[i].ItemCurrency = normalizeCode(p.Items[i].ItemCurrency)
		if err := e.checkCurrency(p.Items[i].ItemCurrency); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) prepareExpense(x *model.Expense) error {
	if err := x.Validate(); err != nil {
		return err
	}
	x.Currency = normalizeCode(x.Currency)
	return e.checkCurrency(x.Currency)
}

func (e *Engine) prepareEmployee(emp *model.Employee) error {
	if err := emp.Validate(); err != nil {
		return err
	}
	emp.Currency = normalizeCode(emp.Currency)
	return e.checkCurrency(emp.Currency)
}

// checkEndProductBinding requires the bound recipe and package to exist and the (recipe, package)
// pair to be unused by any product in others except the one with id self. A negative self
// checks against every product.
func checkEndProductBinding(p model.EndProduct, self int, recipes []model.Recipe, packages []model.Package, others []model.EndProduct) error {
	if indexOf(recipes, recipeID, p.RecipeID) < 0 {
		return fmt.Errorf("recipe %d: %w", p.RecipeID, common.ErrNotFound)
	}
	if indexOf(packages, packageID, p.PackageID) < 0 {
		return fmt.Errorf("package %d: %w", p.PackageID, common.ErrNotFound)
	}
	for _, other := range others {
		if other.ID != self && other.RecipeID == p.RecipeID && other.PackageID == p.PackageID {
			return fmt.Errorf("%w: end product %q already uses recipe %d with package %d",
				common.ErrDuplicateEntry, other.Name, p.RecipeID, p.PackageID)
		}
	}
	return nil
}

// checkUniqueEmail rejects an email already used by an employee in others other than self.
// Emails compare case-insensitively.
func checkUniqueEmail(emp model.Employee, self string, others []model.Employee) error {
	for _, other := range others {
		if (self == "" || other.ID != self) && strings.EqualFold(other.Email, emp.Email) {
			return fmt.Errorf("%w: email %s", common.ErrDuplicateEntry, emp.Email)
		}
	}
	return nil
}

// checkUniqueIDs rejects a collection that repeats an id.
func checkUniqueIDs[T any, K comparable](kind string, items []T, key func(T) K) error {
	seen := make(map[K]struct{}, len(items))
	for _, item := range items {
		id := key(item)
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: %s id %v", common.ErrDuplicateEntry, kind, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
