// Package currency holds the currency rate history and converts amounts through the default currency.
package currency

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/donis3/costcalc/internal/amount"
	"github.com/donis3/costcalc/internal/model"
)

// DefaultMaxHistory is the number of observations kept per currency, current rate included.
const DefaultMaxHistory = 6

// Rate ingestion errors.
var (
	ErrInvalidRate     = errors.New("invalid rate")
	ErrUnknownCurrency = errors.New("unknown currency")
	ErrDisabled        = errors.New("currency not enabled")
	ErrNotDefault      = errors.New("rate target must be the default currency")
	ErrIsDefault       = errors.New("default currency has a fixed rate of 1")
)

// Conversion is the result of Convert. Currency is the currency Amount is expressed in.
type Conversion struct {
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
}

// RateInfo is the current rate of a currency together with older observations, oldest first.
type RateInfo struct {
	Date     time.Time            `json:"date"`
	Currency string               `json:"currency"`
	History  []model.CurrencyRate `json:"history"`
	Rate     float64              `json:"rate"`
}

// Reader is the query side of a Store. Every method returns copies, so holders of a Reader cannot
// change the history.
type Reader interface {
	Default() string
	Codes() []string
	CurrentRate(code string) float64
	RateWithHistory(code string, depth int) RateInfo
	Convert(amt float64, from, to string, round bool) Conversion
	Convertible(code string) bool
	Snapshot() model.CurrencyHistory
}

var _ Reader = (*Store)(nil)

// ReadOnly returns a Reader over s that cannot be asserted back to the Store.
func (s *Store) ReadOnly() Reader {
	return readOnly{store: s}
}

type readOnly struct {
	store *Store
}

func (r readOnly) Default() string { return r.store.Default() }
func (r readOnly) Codes() []string { return r.store.Codes() }
func (r readOnly) CurrentRate(code string) float64 { return r.store.CurrentRate(code) }
func (r readOnly) Convertible(code string) bool { return r.store.Convertible(code) }
func (r readOnly) Snapshot() model.CurrencyHistory { return r.store.Snapshot() }

func (r readOnly) RateWithHistory(code string, depth int) RateInfo {
	return r.store.RateWithHistory(code, depth)
}

func (r readOnly) Convert(amt float64, from, to string, round bool) Conversion {
	return r.store.Convert(amt, from, to, round)
}

// Store owns the currency history. Readers see either the mapping before or after a write,
// never a partially updated one: writers build a new mapping and swap it in.
type Store struct {
	history     model.CurrencyHistory
	enabled     map[string]bool
	now         func() time.Time
	defaultCode string
	maxHistory  int
	mu          sync.RWMutex
}

// Option configures a Store.
type Option func(*Store)

// WithEnabled restricts conversions and ingestion to the given currency codes.
func WithEnabled(codes ...string) Option {
	return func(s *Store) {
		s.enabled = make(map[string]bool, len(codes))
		for _, code := range codes {
			s.enabled[normalize(code)] = true
		}
	}
}

// WithMaxHistory sets how many observations are kept per currency.
func WithMaxHistory(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxHistory = n
		}
	}
}

// WithHistory seeds the store with previously persisted observations.
func WithHistory(h model.CurrencyHistory) Option {
	return func(s *Store) {
		s.history = h.Clone()
	}
}

// WithClock overrides the time source used to stamp observations.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates a store normalizing into defaultCode.
func NewStore(defaultCode string, opts ...Option) *Store {
	s := &Store{
		defaultCode: normalize(defaultCode),
		maxHistory:  DefaultMaxHistory,
		history:     make(model.CurrencyHistory),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.enabled != nil {
		s.enabled[s.defaultCode] = true
	}
	s.history = s.sanitize(s.history)
	return s
}

// sanitize drops observations that do not target the default currency, orders each series
// newest first and applies the length cap.
func (s *Store) sanitize(h model.CurrencyHistory) model.CurrencyHistory {
	out := make(model.CurrencyHistory, len(h))
	for code, rates := range h {
		code = normalize(code)
		if code == s.defaultCode {
			continue
		}
		kept := make([]model.CurrencyRate, 0, len(rates))
		for _, r := range rates {
			if normalize(r.To) == s.defaultCode && amount.Finite(r.Rate) && r.Rate >= 0 {
				kept = append(kept, r)
			}
		}
		if len(kept) == 0 {
			continue
		}
		sort.SliceStable(kept, func(i, j int) bool { return kept[i].Date.After(kept[j].Date) })
		if len(kept) > s.maxHistory {
			kept = kept[:s.maxHistory]
		}
		out[code] = kept
	}
	return out
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Default returns the default currency code.
func (s *Store) Default() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultCode
}

func (s *Store) isEnabled(code string) bool {
	return s.enabled == nil || s.enabled[code]
}

// AddObservation records that one unit of from is worth rate units of to.
// It returns false without error when rate equals the newest stored rate for from.
func (s *Store) AddObservation(from, to string, rate float64) (bool, error) {
	from, to = normalize(from), normalize(to)

	if err := validateCode(from); err != nil {
		return false, err
	}
	if err := validateCode(to); err != nil {
		return false, err
	}
	if !amount.Finite(rate) || rate < 0 {
		return false, fmt.Errorf("%w: %v", ErrInvalidRate, rate)
	}
	rate = amount.Round2(rate)

	s.mu.Lock()
	defer s.mu.Unlock()

	if from == s.defaultCode {
		return false, fmt.Errorf("%w: %s", ErrIsDefault, from)
	}
	if to != s.defaultCode {
		return false, fmt.Errorf("%w: got %s, default is %s", ErrNotDefault, to, s.defaultCode)
	}
	if !s.isEnabled(from) {
		return false, fmt.Errorf("%w: %s", ErrDisabled, from)
	}

	current := s.history[from]
	if len(current) > 0 && current[0].Rate == rate {
		return false, nil
	}

	series := make([]model.CurrencyRate, 0, min(len(current)+1, s.maxHistory))
	series = append(series, model.CurrencyRate{Date: s.now(), From: from, To: to, Rate: rate})
	series = append(series, current...)
	if len(series) > s.maxHistory {
		series = series[:s.maxHistory]
	}

	next := make(model.CurrencyHistory, len(s.history)+1)
	for code, rates := range s.history {
		next[code] = rates
	}
	next[from] = series
	s.history = next
	return true, nil
}

func validateCode(code string) error {
	if !model.ValidCurrencyCode(code) {
		return fmt.Errorf("%w %q", model.ErrInvalidCurrency, code)
	}
	if money.GetCurrency(code) == nil {
		return fmt.Errorf("%w: %s", ErrUnknownCurrency, code)
	}
	return nil
}

// CurrentRate returns the newest rate of code in the default currency.
// The default currency and currencies without observations have a rate of 1.
func (s *Store) CurrentRate(code string) float64 {
	code = normalize(code)
	s.mu.RLock()
	defer s.mu.RUnlock()
	rate, _ := s.rateLocked(code)
	return rate
}

// rateLocked returns the current rate and whether code can take part in a conversion.
func (s *Store) rateLocked(code string) (float64, bool) {
	if code == s.defaultCode {
		return 1, true
	}
	rates := s.history[code]
	if len(rates) == 0 || !s.isEnabled(code) {
		return 1, false
	}
	return rates[0].Rate, true
}

// RateWithHistory returns the current rate of code and up to depth older observations.
func (s *Store) RateWithHistory(code string, depth int) RateInfo {
	code = normalize(code)
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := RateInfo{Currency: code, Rate: 1}
	rates := s.history[code]
	if code == s.defaultCode || len(rates) == 0 {
		return info
	}

	info.Rate = rates[0].Rate
	info.Date = rates[0].Date
	if depth <= 0 {
		return info
	}
	older := rates[1:]
	if len(older) > depth {
		older = older[:depth]
	}
	info.History = append([]model.CurrencyRate(nil), older...)
	sort.SliceStable(info.History, func(i, j int) bool {
		return info.History[i].Date.Before(info.History[j].Date)
	})
	return info
}

// Convert converts amt from one currency to another through the default currency. An empty to
// means the default currency. When either side has no usable rate the input is returned unchanged.
func (s *Store) Convert(amt float64, from, to string, round bool) Conversion {
	from, to = normalize(from), normalize(to)
	original := Conversion{Currency: from, Amount: amt}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if to == "" {
		to = s.defaultCode
	}
	fromRate, ok := s.rateLocked(from)
	if !ok || !amount.Finite(amt) {
		return original
	}
	toRate, ok := s.rateLocked(to)
	if !ok {
		return original
	}

	inDefault := decimal.NewFromFloat(amt).Mul(decimal.NewFromFloat(fromRate))
	if to == s.defaultCode {
		if round {
			inDefault = inDefault.Round(amount.Places)
		}
		return Conversion{Currency: to, Amount: inDefault.InexactFloat64()}
	}
	if toRate == 0 {
		return original
	}
	return Conversion{Currency: to, Amount: inDefault.DivRound(decimal.NewFromFloat(toRate), 8).InexactFloat64()}
}

// ToDefault converts amt in code to the default currency without rounding.
// Unconvertible amounts are returned as they are.
func (s *Store) ToDefault(amt float64, code string) float64 {
	return s.Convert(amt, code, "", false).Amount
}

// Convertible reports whether code has a usable rate.
func (s *Store) Convertible(code string) bool {
	code = normalize(code)
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rateLocked(code)
	return ok
}

// Reset clears the whole history and makes newDefault the default currency.
// An empty newDefault keeps the current default.
func (s *Store) Reset(newDefault string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if code := normalize(newDefault); code != "" {
		s.defaultCode = code
		if s.enabled != nil {
			s.enabled[code] = true
		}
	}
	s.history = make(model.CurrencyHistory)
}

// Snapshot returns a deep copy of the history for persistence.
func (s *Store) Snapshot() model.CurrencyHistory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.Clone()
}

// Codes returns the currencies that have observations, sorted.
func (s *Store) Codes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	codes := make([]string, 0, len(s.history))
	for code := range s.history {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
