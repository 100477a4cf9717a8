// Package model defines the entities shared by the cost engine and its collaborators.
package model

import "time"

// CurrencyRate is one observed conversion rate from a foreign currency into the default currency.
type CurrencyRate struct {
	Date time.Time `json:"date"`
	From string    `json:"from"`
	To   string    `json:"to"`
	Rate float64   `json:"rate"`
}

// CurrencyHistory maps a foreign currency code to its observations, newest first.
type CurrencyHistory map[string][]CurrencyRate

// Clone returns a deep copy of the history.
func (h CurrencyHistory) Clone() CurrencyHistory {
	out := make(CurrencyHistory, len(h))
	for code, rates := range h {
		out[code] = append([]CurrencyRate(nil), rates...)
	}
	return out
}
