package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/donis3/costcalc/internal/amount"
	"github.com/donis3/costcalc/internal/common"
	"github.com/donis3/costcalc/internal/model"
	"github.com/donis3/costcalc/internal/recompute"
)

// Converter converts amounts into the default currency.
type Converter interface {
	Default() string
	ToDefault(amt float64, code string) float64
}

// PackageCost is the per-unit cost of a package in the default currency.
type PackageCost struct {
	Cost        float64 `json:"cost"`
	Tax         float64 `json:"tax"`
	CostWithTax float64 `json:"costWithTax"`
}

// CostTableRow is one package item as shown in a cost breakdown.
type CostTableRow struct {
	Name        string            `json:"name"`
	Currency    string            `json:"currency"`
	PackageType model.PackageType `json:"packageType"`
	Price       float64           `json:"price"`
	BoxCapacity int               `json:"boxCapacity"`
	UnitCost    float64           `json:"unitCost"`
	Tax         float64           `json:"tax"`
	CostWithTax float64           `json:"costWithTax"`
}

// itemUnitCost converts an item price to the default currency and divides boxes by their capacity.
func itemUnitCost(item model.PackageItem, conv Converter) (cost, tax decimal.Decimal) {
	cost = amount.Dec(conv.ToDefault(item.ItemPrice, item.ItemCurrency))
	if item.PackageType == model.PackageTypeBox && item.BoxCapacity > 1 {
		cost = cost.Div(decimal.NewFromInt(int64(item.BoxCapacity)))
	}
	tax = amount.Percent(cost.InexactFloat64(), item.ItemTax)
	return cost, tax
}

// CalculatePackageCost sums the per-unit item costs of p.
func CalculatePackageCost(p model.Package, conv Converter) PackageCost {
	cost, tax := decimal.Zero, decimal.Zero
	for _, item := range p.Items {
		c, t := itemUnitCost(item, conv)
		cost = cost.Add(c)
		tax = tax.Add(t)
	}
	return PackageCost{
		Cost:        cost.Round(amount.Places).InexactFloat64(),
		Tax:         tax.Round(amount.Places).InexactFloat64(),
		CostWithTax: cost.Add(tax).Round(amount.Places).InexactFloat64(),
	}
}

// ApplyPackageCost writes cost into p and pushes a cost history entry on the first computation or
// when the rounded cost differs from the newest entry. It reports whether p changed.
func ApplyPackageCost(p *model.Package, cost PackageCost, code string, now time.Time, limit int) bool {
	before := p.Clone()
	p.Cost, p.Tax, p.CostWithTax = cost.Cost, cost.Tax, cost.CostWithTax

	entry := model.CostHistoryEntry{Date: now, Currency: code, Cost: cost.Cost}
	switch {
	case len(p.CostHistory) == 0:
		p.CostHistory = recompute.PushBounded(p.CostHistory, entry, limit)
	case !amount.Equal2(p.CostHistory[0].Cost, cost.Cost) || p.CostHistory[0].Currency != code:
		entry.Change = changePercent(p.CostHistory[0].Cost, cost.Cost)
		p.CostHistory = recompute.PushBounded(p.CostHistory, entry, limit)
	}
	return recompute.Changed(before, *p)
}

// changePercent is the relative move from prev to next, 0 when prev is 0.
func changePercent(prev, next float64) float64 {
	if prev == 0 {
		return 0
	}
	d := amount.Dec(next).Sub(amount.Dec(prev)).Div(amount.Dec(prev)).Mul(decimal.NewFromInt(100))
	return d.Round(amount.Places).InexactFloat64()
}

// CostTable projects every item of p into a read-only cost breakdown.
func CostTable(p model.Package, conv Converter) []CostTableRow {
	rows := make([]CostTableRow, 0, len(p.Items))
	for _, item := range p.Items {
		cost, tax := itemUnitCost(item, conv)
		rows = append(rows, CostTableRow{
			Name:        item.Name,
			Currency:    item.ItemCurrency,
			PackageType: item.PackageType,
			Price:       item.ItemPrice,
			BoxCapacity: item.BoxCapacity,
			UnitCost:    cost.Round(amount.Places).InexactFloat64(),
			Tax:         tax.Round(amount.Places).InexactFloat64(),
			CostWithTax: cost.Add(tax).Round(amount.Places).InexactFloat64(),
		})
	}
	return rows
}

func (e *Engine) packagesPass() bool {
	now := e.now()
	code := e.rates.Default()
	changed := false
	for i := range e.state.Packages {
		cost := CalculatePackageCost(e.state.Packages[i], e.rates)
		if ApplyPackageCost(&e.state.Packages[i], cost, code, now, e.settings.PackageHistorySize) {
			changed = true
		}
	}
	return changed
}

// PackageCostTable returns the cost breakdown of package id.
func (e *Engine) PackageCostTable(id int) ([]CostTableRow, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := indexOf(e.state.Packages, packageID, id)
	if i < 0 {
		return nil, fmt.Errorf("package %d: %w", id, common.ErrNotFound)
	}
	return CostTable(e.state.Packages[i], e.rates), nil
}
