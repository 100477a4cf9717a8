package model

import (
	"slices"
	"time"
)

// PackageType describes how a package item relates to the units it holds.
type PackageType string

const (
	// PackageTypeBox is an outer box; its price is shared by BoxCapacity contained units.
	PackageTypeBox PackageType = "box"
	// PackageTypeContainer holds exactly one unit.
	PackageTypeContainer PackageType = "container"
	// PackageTypeOther covers labels, caps and similar per-unit items.
	PackageTypeOther PackageType = "other"
)

// ProductType is the physical state of the product a package holds.
type ProductType string

const (
	// ProductTypeLiquid products are measured in liters.
	ProductTypeLiquid ProductType = "liquid"
	// ProductTypeSolid products are measured in kilograms.
	ProductTypeSolid ProductType = "solid"
)

// PackageItem is a single purchased component of a package.
type PackageItem struct {
	Name         string      `json:"name"`
	ItemCurrency string      `json:"itemCurrency"`
	PackageType  PackageType `json:"packageType"`
	ItemPrice    float64     `json:"itemPrice"`
	ItemTax      float64     `json:"itemTax"`
	BoxCapacity  int         `json:"boxCapacity"`
}

// CostHistoryEntry records a package cost and its change against the previous entry.
type CostHistoryEntry struct {
	Date     time.Time `json:"date"`
	Currency string    `json:"currency"`
	Cost     float64   `json:"cost"`
	Change   float64   `json:"change"`
}

// Package bundles items around a recipe's output. Cost, Tax and CostWithTax are derived and
// always in the default currency.
type Package struct {
	Name            string             `json:"name"`
	ProductType     ProductType        `json:"productType"`
	Items           []PackageItem      `json:"items"`
	CostHistory     []CostHistoryEntry `json:"costHistory"`
	ID              int                `json:"packageId"`
	PackageCapacity float64            `json:"packageCapacity"`
	Cost            float64            `json:"cost"`
	Tax             float64            `json:"tax"`
	CostWithTax     float64            `json:"costWithTax"`
}

// Clone returns a copy of the package that shares no slices with p.
func (p Package) Clone() Package {
	p.Items = slices.Clone(p.Items)
	p.CostHistory = slices.Clone(p.CostHistory)
	return p
}
