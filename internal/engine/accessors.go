package engine

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/donis3/costcalc/internal/model"
	"github.com/donis3/costcalc/internal/recompute"
)

func byNameThenID[T any](name func(T) string, id func(T) int) func(a, b T) int {
	return func(a, b T) int {
		if c := cmp.Compare(strings.ToLower(name(a)), strings.ToLower(name(b))); c != 0 {
			return c
		}
		return cmp.Compare(id(a), id(b))
	}
}

func cloneMaterial(m model.Material) model.Material {
	m.PriceHistory = slices.Clone(m.PriceHistory)
	return m
}

func cloneExpense(x model.Expense) model.Expense {
	x.Cost = maps.Clone(x.Cost)
	return x
}

func cloneTotals(t model.CompanyTotals) model.CompanyTotals {
	t.History = slices.Clone(t.History)
	return t
}

func cloneAll[T any](items []T, clone func(T) T) []T {
	out := make([]T, len(items))
	for i, item := range items {
		out[i] = clone(item)
	}
	return out
}

func identity[T any](v T) T { return v }

// Materials returns every material sorted by name, then id.
func (e *Engine) Materials() []model.Material {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := cloneAll(e.state.Materials, cloneMaterial)
	slices.SortStableFunc(out, byNameThenID(func(m model.Material) string { return m.Name }, materialID))
	return out
}

// Material finds a material by id.
func (e *Engine) Material(id int) (model.Material, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := indexOf(e.state.Materials, materialID, id); i >= 0 {
		return cloneMaterial(e.state.Materials[i]), true
	}
	return model.Material{}, false
}

// Recipes returns every recipe sorted by name, then id.
func (e *Engine) Recipes() []model.Recipe {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := cloneAll(e.state.Recipes, model.Recipe.Clone)
	slices.SortStableFunc(out, byNameThenID(func(r model.Recipe) string { return r.Name }, recipeID))
	return out
}

// Recipe finds a recipe by id.
func (e *Engine) Recipe(id int) (model.Recipe, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := indexOf(e.state.Recipes, recipeID, id); i >= 0 {
		return e.state.Recipes[i].Clone(), true
	}
	return model.Recipe{}, false
}

// Packages returns every package sorted by name, then id.
func (e *Engine) Packages() []model.Package {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := cloneAll(e.state.Packages, model.Package.Clone)
	slices.SortStableFunc(out, byNameThenID(func(p model.Package) string { return p.Name }, packageID))
	return out
}

// Package finds a package by id.
func (e *Engine) Package(id int) (model.Package, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := indexOf(e.state.Packages, packageID, id); i >= 0 {
		return e.state.Packages[i].Clone(), true
	}
	return model.Package{}, false
}

// EndProducts returns every end product sorted by name, then id.
func (e *Engine) EndProducts() []model.EndProduct {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := cloneAll(e.state.EndProducts, identity[model.EndProduct])
	slices.SortStableFunc(out, byNameThenID(func(p model.EndProduct) string { return p.Name }, endProductID))
	return out
}

// EndProduct finds an end product by id.
func (e *Engine) EndProduct(id int) (model.EndProduct, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := indexOf(e.state.EndProducts, endProductID, id); i >= 0 {
		return e.state.EndProducts[i], true
	}
	return model.EndProduct{}, false
}

// Expenses returns every expense sorted by category, then name.
func (e *Engine) Expenses() []model.Expense {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := cloneAll(e.state.Expenses, cloneExpense)
	slices.SortStableFunc(out, func(a, b model.Expense) int {
		if c := cmp.Compare(strings.ToLower(a.Category), strings.ToLower(b.Category)); c != 0 {
			return c
		}
		return byNameThenID(func(x model.Expense) string { return x.Name }, expenseID)(a, b)
	})
	return out
}

// Expense finds an expense by id.
func (e *Engine) Expense(id int) (model.Expense, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := indexOf(e.state.Expenses, expenseID, id); i >= 0 {
		return cloneExpense(e.state.Expenses[i]), true
	}
	return model.Expense{}, false
}

// Employees returns every employee sorted by name.
func (e *Engine) Employees() []model.Employee {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := slices.Clone(e.state.Employees)
	slices.SortStableFunc(out, func(a, b model.Employee) int {
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return out
}

// Employee finds an employee by id.
func (e *Engine) Employee(id string) (model.Employee, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := indexOf(e.state.Employees, employeeID, id); i >= 0 {
		return e.state.Employees[i], true
	}
	return model.Employee{}, false
}

// Totals returns the company totals.
func (e *Engine) Totals() model.CompanyTotals {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneTotals(e.state.Totals)
}

// Snapshot returns a deep copy of the whole state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{
		Totals:      cloneTotals(e.state.Totals),
		Materials:   cloneAll(e.state.Materials, cloneMaterial),
		Recipes:     cloneAll(e.state.Recipes, model.Recipe.Clone),
		Packages:    cloneAll(e.state.Packages, model.Package.Clone),
		EndProducts: slices.Clone(e.state.EndProducts),
		Expenses:    cloneAll(e.state.Expenses, cloneExpense),
		Employees:   slices.Clone(e.state.Employees),
	}
}

// Import replaces every collection present in s. Entities pass the same checks as the Dispatch
// functions, ids must be unique per collection and imported end products must bind recipes and
// packages of the resulting state. On any error nothing changes. Ids are kept as given, derived
// fields are recomputed.
func (e *Engine) Import(ctx context.Context, s State) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.validateImport(&s); err != nil {
		return err
	}

	var stages []recompute.Stage
	replace := func(present bool, table string, stage recompute.Stage, apply func()) {
		if !present {
			return
		}
		apply()
		e.saveTable(ctx, table)
		stages = append(stages, stage)
	}
	replace(s.Materials != nil, TableMaterials, recompute.StageMaterials, func() { e.state.Materials = s.Materials })
	replace(s.Recipes != nil, TableRecipes, recompute.StageRecipes, func() { e.state.Recipes = s.Recipes })
	replace(s.Packages != nil, TablePackages, recompute.StagePackages, func() { e.state.Packages = s.Packages })
	replace(s.EndProducts != nil, TableEndProducts, recompute.StageEndProducts, func() { e.state.EndProducts = s.EndProducts })
	replace(s.Expenses != nil, TableExpenses, recompute.StageExpenses, func() { e.state.Expenses = s.Expenses })
	replace(s.Employees != nil, TableEmployees, recompute.StageEmployees, func() { e.state.Employees = s.Employees })

	e.queue.Enqueue(stages...)
	e.drain(ctx)
	return nil
}

func prepareEach[T any](kind string, items []T, prepare func(*T) error) error {
	for i := range items {
		if err := prepare(&items[i]); err != nil {
			return fmt.Errorf("%s %d: %w", kind, i, err)
		}
	}
	return nil
}

func (e *Engine) validateImport(s *State) error {
	if s.Recipes != nil {
		s.Recipes = cloneAll(s.Recipes, model.Recipe.Clone)
	}
	if s.Packages != nil {
		s.Packages = cloneAll(s.Packages, model.Package.Clone)
	}
	for i := range s.Employees {
		if s.Employees[i].ID == "" {
			s.Employees[i].ID = uuid.NewString()
		}
	}

	checks := []func() error{
		func() error { return prepareEach("material", s.Materials, e.prepareMaterial) },
		func() error { return prepareEach("recipe", s.Recipes, e.prepareRecipe) },
		func() error { return prepareEach("package", s.Packages, e.preparePackage) },
		func() error {
			return prepareEach("end product", s.EndProducts, func(p *model.EndProduct) error { return p.Validate() })
		},
		func() error { return prepareEach("expense", s.Expenses, e.prepareExpense) },
		func() error { return prepareEach("employee", s.Employees, e.prepareEmployee) },
		func() error { return checkUniqueIDs("material", s.Materials, materialID) },
		func() error { return checkUniqueIDs("recipe", s.Recipes, recipeID) },
		func() error { return checkUniqueIDs("package", s.Packages, packageID) },
		func() error { return checkUniqueIDs("end product", s.EndProducts, endProductID) },
		func() error { return checkUniqueIDs("expense", s.Expenses, expenseID) },
		func() error { return checkUniqueIDs("employee", s.Employees, employeeID) },
		func() error {
			for i, emp := range s.Employees {
				if err := checkUniqueEmail(emp, emp.ID, s.Employees[:i]); err != nil {
					return fmt.Errorf("employee %d: %w", i, err)
				}
			}
			return nil
		},
		func() error {
			recipes, packages := s.Recipes, s.Packages
			if recipes == nil {
				recipes = e.state.Recipes
			}
			if packages == nil {
				packages = e.state.Packages
			}
			for i, p := range s.EndProducts {
				if err := checkEndProductBinding(p, -1, recipes, packages, s.EndProducts[:i]); err != nil {
					return fmt.Errorf("end product %d: %w", i, err)
				}
			}
			return nil
		},
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}
