// Package engine implements the cost engine: entity reducers, the ordered aggregation passes
// and persistence of every derived figure.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/donis3/costcalc/internal/common"
	"github.com/donis3/costcalc/internal/config"
	"github.com/donis3/costcalc/internal/currency"
	"github.com/donis3/costcalc/internal/model"
	"github.com/donis3/costcalc/internal/recompute"
	"github.com/donis3/costcalc/internal/service"
)

// Table names under the configured repo.
const (
	TableMeta          = "meta"
	TableCurrency      = "currency"
	TableMaterials     = "materials"
	TableRecipes       = "recipes"
	TablePackages      = "packages"
	TableEndProducts   = "endProducts"
	TableExpenses      = "expenses"
	TableEmployees     = "employees"
	TableCompanyTotals = "companyTotals"
)

// ErrUnitNotAllowed is returned when an entity uses a unit missing from units.allowed.
var ErrUnitNotAllowed = errors.New("unit not allowed")

// State is every entity collection the engine owns.
type State struct {
	Totals      model.CompanyTotals `json:"companyTotals"`
	Materials   []model.Material    `json:"materials"`
	Recipes     []model.Recipe      `json:"recipes"`
	Packages    []model.Package     `json:"packages"`
	EndProducts []model.EndProduct  `json:"endProducts"`
	Expenses    []model.Expense     `json:"expenses"`
	Employees   []model.Employee    `json:"employees"`
}

type meta struct {
	DefaultCurrency string `json:"defaultCurrency"`
}

// Engine orchestrates the cost aggregation passes. All exported methods are safe for
// concurrent use; passes themselves run one at a time.
type Engine struct {
	storage  service.Storage
	rates    *currency.Store
	queue    *recompute.Queue
	now      func() time.Time
	settings config.Settings
	state    State
	mu       sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used to stamp history entries and rates.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an engine persisting through storage. A nil storage keeps everything in memory.
func New(storage service.Storage, settings config.Settings, opts ...Option) *Engine {
	e := &Engine{
		storage:  storage,
		settings: settings,
		queue:    recompute.NewQueue(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.rates = e.newRateStore(nil)
	return e
}

func (e *Engine) newRateStore(history model.CurrencyHistory) *currency.Store {
	return currency.NewStore(e.settings.DefaultCurrency,
		currency.WithEnabled(e.settings.Currencies...),
		currency.WithMaxHistory(e.settings.CurrencyHistorySize),
		currency.WithHistory(history),
		currency.WithClock(e.now),
	)
}

// Load reads every table from storage, falling back to empty defaults for missing tables, and runs
// a full aggregation pass so derived values match the current rates and configuration.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var (
		stored  meta
		history model.CurrencyHistory
		state   State
	)
	tables := []struct {
		dst  any
		name string
	}{
		{name: TableMeta, dst: &stored},
		{name: TableCurrency, dst: &history},
		{name: TableMaterials, dst: &state.Materials},
		{name: TableRecipes, dst: &state.Recipes},
		{name: TablePackages, dst: &state.Packages},
		{name: TableEndProducts, dst: &state.EndProducts},
		{name: TableExpenses, dst: &state.Expenses},
		{name: TableEmployees, dst: &state.Employees},
		{name: TableCompanyTotals, dst: &state.Totals},
	}
	for _, table := range tables {
		if err := e.load(ctx, table.name, table.dst); err != nil {
			return err
		}
	}

	e.state = state
	e.rates = e.newRateStore(history)

	if stored.DefaultCurrency != "" && !strings.EqualFold(stored.DefaultCurrency, e.settings.DefaultCurrency) {
		slog.Info("Default currency changed, clearing rate history",
			"previous", stored.DefaultCurrency,
			"current", e.settings.DefaultCurrency)
		e.rates.Reset(e.settings.DefaultCurrency)
		e.save(ctx, TableCurrency, e.rates.Snapshot())
	}
	if stored.DefaultCurrency != e.rates.Default() {
		e.save(ctx, TableMeta, meta{DefaultCurrency: e.rates.Default()})
	}

	e.queue.EnqueueAll()
	e.drain(ctx)
	return nil
}

func (e *Engine) load(ctx context.Context, table string, dst any) error {
	if e.storage == nil {
		return nil
	}
	found, err := e.storage.Load(ctx, e.settings.Repo, table, dst)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", table, err)
	}
	common.LogDebug("Loaded table", common.Fields{"table": table, "found": found})
	return nil
}

// save persists a table. Failures are logged and the engine keeps working from memory.
func (e *Engine) save(ctx context.Context, table string, data any) {
	if e.storage == nil {
		return
	}
	if err := e.storage.Save(ctx, e.settings.Repo, table, data); err != nil {
		slog.Warn("Failed to save table, continuing from memory", "table", table, "error", err)
	}
}

// Recompute runs every aggregation pass.
func (e *Engine) Recompute(ctx context.Context) []recompute.Stage {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queue.EnqueueAll()
	return e.drain(ctx)
}

// drain runs the queued passes in dependency order and persists the tables whose derived values
// changed. Callers hold e.mu.
func (e *Engine) drain(ctx context.Context) []recompute.Stage {
	return e.queue.Drain(func(stage recompute.Stage) {
		table, changed := e.runStage(stage)
		if !changed {
			slog.Debug("Aggregation pass unchanged", "stage", stage)
			return
		}
		slog.Debug("Aggregation pass changed", "stage", stage, "table", table)
		e.saveTable(ctx, table)
	})
}

func (e *Engine) runStage(stage recompute.Stage) (string, bool) {
	switch stage {
	case recompute.StageCurrency, recompute.StageEmployees:
		return "", false
	case recompute.StageMaterials:
		return TableMaterials, e.materialsPass()
	case recompute.StageExpenses:
		return TableExpenses, e.expensesPass()
	case recompute.StageRecipes:
		return TableRecipes, e.recipesPass()
	case recompute.StagePackages:
		return TablePackages, e.packagesPass()
	case recompute.StageEndProducts:
		return TableEndProducts, e.endProductsPass()
	case recompute.StageTotals:
		return TableCompanyTotals, e.totalsPass()
	default:
		panic(fmt.Sprintf("engine: no pass for stage %q", stage))
	}
}

func (e *Engine) saveTable(ctx context.Context, table string) {
	switch table {
	case TableCurrency:
		e.save(ctx, table, e.rates.Snapshot())
	case TableMaterials:
		e.save(ctx, table, e.state.Materials)
	case TableRecipes:
		e.save(ctx, table, e.state.Recipes)
	case TablePackages:
		e.save(ctx, table, e.state.Packages)
	case TableEndProducts:
		e.save(ctx, table, e.state.EndProducts)
	case TableExpenses:
		e.save(ctx, table, e.state.Expenses)
	case TableEmployees:
		e.save(ctx, table, e.state.Employees)
	case TableCompanyTotals:
		e.save(ctx, table, e.state.Totals)
	default:
		panic(fmt.Sprintf("engine: unknown table %q", table))
	}
}

// commit persists an edited collection and runs everything downstream of it.
func (e *Engine) commit(ctx context.Context, table string, stage recompute.Stage) {
	e.saveTable(ctx, table)
	e.queue.Enqueue(stage)
	e.drain(ctx)
}

// Settings returns the configuration the engine runs with.
func (e *Engine) Settings() config.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}
