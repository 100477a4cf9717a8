package model

import (
	"strings"
	"time"
)

// Base units for recipe material lines.
const (
	UnitKilogram = "kg"
	UnitLiter    = "L"
)

// IsLiquidUnit reports whether amounts in unit are volumes that need a density to become weights.
func IsLiquidUnit(unit string) bool {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "l", "lt", "liter", "litre":
		return true
	default:
		return false
	}
}

// PricePoint is a material price observation in the default currency.
type PricePoint struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// Material is a raw material bought in its own currency.
type Material struct {
	Name         string       `json:"name"`
	Unit         string       `json:"unit"`
	Currency     string       `json:"currency"`
	PriceHistory []PricePoint `json:"priceHistory"`
	ID           int          `json:"materialId"`
	Density      float64      `json:"density"`
	Price        float64      `json:"price"`
	Tax          float64      `json:"tax"`
}

// LatestPrice returns the most recently recorded default-currency price.
func (m Material) LatestPrice() (PricePoint, bool) {
	if len(m.PriceHistory) == 0 {
		return PricePoint{}, false
	}
	return m.PriceHistory[len(m.PriceHistory)-1], true
}
