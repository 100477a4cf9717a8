package engine

import (
	"github.com/donis3/costcalc/internal/amount"
	"github.com/donis3/costcalc/internal/model"
	"github.com/donis3/costcalc/internal/recompute"
)

// defaultPrice returns the material price in the default currency, unrounded.
func (e *Engine) defaultPrice(m model.Material) float64 {
	return e.rates.ToDefault(m.Price, m.Currency)
}

// materialsPass appends a price point to every material whose default-currency price moved.
func (e *Engine) materialsPass() bool {
	now := e.now()
	changed := false
	for i, m := range e.state.Materials {
		price := amount.Round2(e.defaultPrice(m))
		if last, ok := m.LatestPrice(); ok && amount.Equal2(last.Amount, price) {
			continue
		}
		e.state.Materials[i].PriceHistory = recompute.AppendBounded(m.PriceHistory,
			model.PricePoint{Date: now, Amount: price}, e.settings.MaterialHistorySize)
		changed = true
	}
	return changed
}

func (e *Engine) materialIndex() map[int]model.Material {
	out := make(map[int]model.Material, len(e.state.Materials))
	for _, m := range e.state.Materials {
		out[m.ID] = m
	}
	return out
}

func (e *Engine) densities() map[int]float64 {
	out := make(map[int]float64, len(e.state.Materials))
	for _, m := range e.state.Materials {
		out[m.ID] = m.Density
	}
	return out
}
