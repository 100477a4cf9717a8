package engine

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/donis3/costcalc/internal/common"
	"github.com/donis3/costcalc/internal/model"
	"github.com/donis3/costcalc/internal/recompute"
)

// Action is a write operation on an entity collection.
type Action string

// Supported actions.
const (
	ActionAdd    Action = "add"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionReset  Action = "reset"
)

func unsupported(entity string, action Action) string {
	return fmt.Sprintf("engine: unsupported %s action %q", entity, action)
}

func materialID(m model.Material) int     { return m.ID }
func recipeID(r model.Recipe) int         { return r.ID }
func packageID(p model.Package) int       { return p.ID }
func endProductID(p model.EndProduct) int { return p.ID }
func expenseID(e model.Expense) int       { return e.ID }
func employeeID(e model.Employee) string  { return e.ID }

func indexOf[T any, K comparable](items []T, key func(T) K, k K) int {
	return slices.IndexFunc(items, func(item T) bool { return key(item) == k })
}

// nextID returns max(existing)+1, or 0 for an empty collection.
func nextID[T any](items []T, key func(T) int) int {
	next := 0
	for _, item := range items {
		if id := key(item); id >= next {
			next = id + 1
		}
	}
	return next
}

// DispatchMaterial applies action to the material collection. Derived fields (price history) are
// owned by the engine and ignored on input. Unknown actions panic.
func (e *Engine) DispatchMaterial(ctx context.Context, action Action, m model.Material) (model.Material, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	items := e.state.Materials
	switch action {
	case ActionAdd, ActionUpdate:
		if err := e.prepareMaterial(&m); err != nil {
			return m, err
		}
		if action == ActionAdd {
			m.ID = nextID(items, materialID)
			m.PriceHistory = nil
			items = append(slices.Clone(items), m)
			break
		}
		i := indexOf(items, materialID, m.ID)
		if i < 0 {
			return m, fmt.Errorf("material %d: %w", m.ID, common.ErrNotFound)
		}
		m.PriceHistory = items[i].PriceHistory
		items = slices.Clone(items)
		items[i] = m
	case ActionDelete:
		i := indexOf(items, materialID, m.ID)
		if i < 0 {
			return m, fmt.Errorf("material %d: %w", m.ID, common.ErrNotFound)
		}
		m = items[i]
		items = slices.Delete(slices.Clone(items), i, i+1)
	case ActionReset:
		items = nil
	default:
		panic(unsupported("material", action))
	}

	e.state.Materials = items
	e.commit(ctx, TableMaterials, recompute.StageMaterials)
	if i := indexOf(e.state.Materials, materialID, m.ID); i >= 0 && action != ActionDelete {
		m = e.state.Materials[i]
	}
	return m, nil
}

// DispatchRecipe applies action to the recipe collection. Unit costs and line weights are derived.
func (e *Engine) DispatchRecipe(ctx context.Context, action Action, r model.Recipe) (model.Recipe, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	items := e.state.Recipes
	switch action {
	case ActionAdd, ActionUpdate:
		if err := e.prepareRecipe(&r); err != nil {
			return r, err
		}
		r = r.Clone()
		if action == ActionAdd {
			r.ID = nextID(items, recipeID)
			r.UnitCosts = nil
			items = append(slices.Clone(items), r)
			break
		}
		i := indexOf(items, recipeID, r.ID)
		if i < 0 {
			return r, fmt.Errorf("recipe %d: %w", r.ID, common.ErrNotFound)
		}
		r.UnitCosts = items[i].UnitCosts
		items = slices.Clone(items)
		items[i] = r
	case ActionDelete:
		i := indexOf(items, recipeID, r.ID)
		if i < 0 {
			return r, fmt.Errorf("recipe %d: %w", r.ID, common.ErrNotFound)
		}
		r = items[i]
		items = slices.Delete(slices.Clone(items), i, i+1)
	case ActionReset:
		items = nil
	default:
		panic(unsupported("recipe", action))
	}

	e.state.Recipes = items
	e.commit(ctx, TableRecipes, recompute.StageRecipes)
	if i := indexOf(e.state.Recipes, recipeID, r.ID); i >= 0 && action != ActionDelete {
		r = e.state.Recipes[i].Clone()
	}
	return r, nil
}

// DispatchPackage applies action to the package collection. Cost, tax and cost history are derived.
func (e *Engine) DispatchPackage(ctx context.Context, action Action, p model.Package) (model.Package, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	items := e.state.Packages
	switch action {
	case ActionAdd, ActionUpdate:
		p = p.Clone()
		if err := e.preparePackage(&p); err != nil {
			return p, err
		}
		if action == ActionAdd {
			p.ID = nextID(items, packageID)
			p.Cost, p.Tax, p.CostWithTax, p.CostHistory = 0, 0, 0, nil
			items = append(slices.Clone(items), p)
			break
		}
		i := indexOf(items, packageID, p.ID)
		if i < 0 {
			return p, fmt.Errorf("package %d: %w", p.ID, common.ErrNotFound)
		}
		prev := items[i]
		p.Cost, p.Tax, p.CostWithTax, p.CostHistory = prev.Cost, prev.Tax, prev.CostWithTax, prev.CostHistory
		items = slices.Clone(items)
		items[i] = p
	case ActionDelete:
		i := indexOf(items, packageID, p.ID)
		if i < 0 {
			return p, fmt.Errorf("package %d: %w", p.ID, common.ErrNotFound)
		}
		p = items[i]
		items = slices.Delete(slices.Clone(items), i, i+1)
	case ActionReset:
		items = nil
	default:
		panic(unsupported("package", action))
	}

	e.state.Packages = items
	e.commit(ctx, TablePackages, recompute.StagePackages)
	if i := indexOf(e.state.Packages, packageID, p.ID); i >= 0 && action != ActionDelete {
		p = e.state.Packages[i].Clone()
	}
	return p, nil
}

// DispatchEndProduct applies action to the end product collection. The bound recipe and package
// must exist and each (recipe, package) pair may be used once.
func (e *Engine) DispatchEndProduct(ctx context.Context, action Action, p model.EndProduct) (model.EndProduct, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	items := e.state.EndProducts
	switch action {
	case ActionAdd, ActionUpdate:
		if err := p.Validate(); err != nil {
			return p, err
		}
		self := p.ID
		if action == ActionAdd {
			self = -1
		}
		if err := checkEndProductBinding(p, self, e.state.Recipes, e.state.Packages, items); err != nil {
			return p, err
		}
		p.Cost = model.EndProductCost{}
		if action == ActionAdd {
			p.ID = nextID(items, endProductID)
			items = append(slices.Clone(items), p)
			break
		}
		i := indexOf(items, endProductID, p.ID)
		if i < 0 {
			return p, fmt.Errorf("end product %d: %w", p.ID, common.ErrNotFound)
		}
		p.Cost = items[i].Cost
		items = slices.Clone(items)
		items[i] = p
	case ActionDelete:
		i := indexOf(items, endProductID, p.ID)
		if i < 0 {
			return p, fmt.Errorf("end product %d: %w", p.ID, common.ErrNotFound)
		}
		p = items[i]
		items = slices.Delete(slices.Clone(items), i, i+1)
	case ActionReset:
		items = nil
	default:
		panic(unsupported("end product", action))
	}

	e.state.EndProducts = items
	e.commit(ctx, TableEndProducts, recompute.StageEndProducts)
	if i := indexOf(e.state.EndProducts, endProductID, p.ID); i >= 0 && action != ActionDelete {
		p = e.state.EndProducts[i]
	}
	return p, nil
}

// DispatchExpense applies action to the expense collection. The per-period cost table is derived.
func (e *Engine) DispatchExpense(ctx context.Context, action Action, x model.Expense) (model.Expense, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	items := e.state.Expenses
	switch action {
	case ActionAdd, ActionUpdate:
		if err := e.prepareExpense(&x); err != nil {
			return x, err
		}
		x.Cost = nil
		if action == ActionAdd {
			x.ID = nextID(items, expenseID)
			items = append(slices.Clone(items), x)
			break
		}
		i := indexOf(items, expenseID, x.ID)
		if i < 0 {
			return x, fmt.Errorf("expense %d: %w", x.ID, common.ErrNotFound)
		}
		items = slices.Clone(items)
		items[i] = x
	case ActionDelete:
		i := indexOf(items, expenseID, x.ID)
		if i < 0 {
			return x, fmt.Errorf("expense %d: %w", x.ID, common.ErrNotFound)
		}
		x = items[i]
		items = slices.Delete(slices.Clone(items), i, i+1)
	case ActionReset:
		items = nil
	default:
		panic(unsupported("expense", action))
	}

	e.state.Expenses = items
	e.commit(ctx, TableExpenses, recompute.StageExpenses)
	if i := indexOf(e.state.Expenses, expenseID, x.ID); i >= 0 && action != ActionDelete {
		x = e.state.Expenses[i]
	}
	return x, nil
}

// DispatchEmployee applies action to the employee collection. New employees get a random UUID and
// emails must be unique.
func (e *Engine) DispatchEmployee(ctx context.Context, action Action, emp model.Employee) (model.Employee, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	items := e.state.Employees
	switch action {
	case ActionAdd, ActionUpdate:
		if err := e.prepareEmployee(&emp); err != nil {
			return emp, err
		}
		self := emp.ID
		if action == ActionAdd {
			self = ""
		}
		if err := checkUniqueEmail(emp, self, items); err != nil {
			return emp, err
		}
		if action == ActionAdd {
			emp.ID = uuid.NewString()
			items = append(slices.Clone(items), emp)
			break
		}
		i := indexOf(items, employeeID, emp.ID)
		if i < 0 {
			return emp, fmt.Errorf("employee %s: %w", emp.ID, common.ErrNotFound)
		}
		items = slices.Clone(items)
		items[i] = emp
	case ActionDelete:
		i := indexOf(items, employeeID, emp.ID)
		if i < 0 {
			return emp, fmt.Errorf("employee %s: %w", emp.ID, common.ErrNotFound)
		}
		emp = items[i]
		items = slices.Delete(slices.Clone(items), i, i+1)
	case ActionReset:
		items = nil
	default:
		panic(unsupported("employee", action))
	}

	e.state.Employees = items
	e.commit(ctx, TableEmployees, recompute.StageEmployees)
	return emp, nil
}
