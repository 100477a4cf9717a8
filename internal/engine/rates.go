package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/Rhymond/go-money"

	"github.com/donis3/costcalc/internal/currency"
	"github.com/donis3/costcalc/internal/model"
	"github.com/donis3/costcalc/internal/recompute"
)

// Rates returns a read-only view of the currency rates. Writes go through AddRate, AddRates,
// ResetRates and SetDefaultCurrency so derived costs follow.
func (e *Engine) Rates() currency.Reader {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rates.ReadOnly()
}

// AddRate records that one unit of code is worth rate units of the default currency and
// recomputes everything priced in foreign currencies. It reports whether a new rate was stored.
func (e *Engine) AddRate(ctx context.Context, code string, rate float64) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	changed, err := e.rates.AddObservation(code, e.rates.Default(), rate)
	if err != nil || !changed {
		return false, err
	}
	slog.Info("Stored currency rate", "currency", strings.ToUpper(code), "rate", rate, "default", e.rates.Default())
	e.commit(ctx, TableCurrency, recompute.StageCurrency)
	return true, nil
}

// AddRates stores a batch of rates keyed by currency code and runs a single recompute. Rejected
// rates are reported together; accepted ones are kept. It returns how many rates changed.
func (e *Engine) AddRates(ctx context.Context, rates map[string]float64) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	codes := make([]string, 0, len(rates))
	for code := range rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var (
		errs    []error
		changed int
	)
	for _, code := range codes {
		if strings.EqualFold(code, e.rates.Default()) {
			continue
		}
		ok, err := e.rates.AddObservation(code, e.rates.Default(), rates[code])
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", code, err))
			continue
		}
		if ok {
			changed++
		}
	}
	if changed > 0 {
		slog.Info("Stored currency rates", "changed", changed, "received", len(rates))
		e.commit(ctx, TableCurrency, recompute.StageCurrency)
	}
	return changed, errors.Join(errs...)
}

// ResetRates clears the whole rate history.
func (e *Engine) ResetRates(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rates.Reset("")
	e.commit(ctx, TableCurrency, recompute.StageCurrency)
}

// SetDefaultCurrency switches the currency every derived cost is expressed in. The rate history
// is cleared because every stored rate targets the old default.
func (e *Engine) SetDefaultCurrency(ctx context.Context, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !model.ValidCurrencyCode(code) {
		return fmt.Errorf("%w %q", model.ErrInvalidCurrency, code)
	}
	if money.GetCurrency(code) == nil {
		return fmt.Errorf("%w: %s", currency.ErrUnknownCurrency, code)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if code == e.rates.Default() {
		return nil
	}
	slog.Info("Changing default currency", "previous", e.rates.Default(), "current", code)

	e.settings.DefaultCurrency = code
	if !slices.Contains(e.settings.Currencies, code) {
		e.settings.Currencies = append([]string{code}, e.settings.Currencies...)
	}
	e.rates.Reset(code)
	e.save(ctx, TableMeta, meta{DefaultCurrency: code})
	e.saveTable(ctx, TableCurrency)
	e.queue.EnqueueAll()
	e.drain(ctx)
	return nil
}

// DefaultCurrency returns the code every derived cost is expressed in.
func (e *Engine) DefaultCurrency() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rates.Default()
}
