// Package config provides configuration utilities for the application.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/donis3/costcalc/internal/common"
)

// Settings is the process-wide configuration read once at startup.
type Settings struct {
	DefaultCurrency      string
	DatabasePath         string
	DatabaseCodec        string
	Repo                 string
	RatesBaseURL         string
	RatesAPIKey          string
	RatesSchedule        string
	Currencies           []string
	Units                []string
	LabourDepartments    []string
	RatesTimeout         time.Duration
	CurrencyHistorySize  int
	UnitCostHistorySize  int
	PackageHistorySize   int
	TotalsHistorySize    int
	MaterialHistorySize  int
	RateHistoryDisplayed int
}

// DefaultSettings returns Settings with sensible defaults.
func DefaultSettings() Settings {
	return Settings{
		DefaultCurrency:      "TRY",
		DatabasePath:         "$HOME/.local/share/costcalc/costcalc.db",
		DatabaseCodec:        "json",
		Repo:                 "costcalc",
		RatesSchedule:        "@every 6h",
		RatesTimeout:         15 * time.Second,
		Currencies:           []string{"TRY", "USD", "EUR", "GBP"},
		Units:                []string{"kg", "L", "g", "mL", "pcs"},
		CurrencyHistorySize:  6,
		UnitCostHistorySize:  10,
		PackageHistorySize:   10,
		TotalsHistorySize:    20,
		MaterialHistorySize:  20,
		RateHistoryDisplayed: 5,
	}
}

// LoadEnv loads environment variables from envFile, or from ./.env when envFile is empty.
// A missing default .env file is not an error.
func LoadEnv(envFile string) error {
	if envFile == "" {
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed loading env file %s: %w", envFile, err)
	}
	return nil
}

// LoadSettings materializes Settings from v, falling back to defaults for unset keys.
func LoadSettings(v *viper.Viper) (Settings, error) {
	s := DefaultSettings()
	if v == nil {
		return s, nil
	}

	if code := v.GetString("currency.default"); code != "" {
		s.DefaultCurrency = code
	}
	if codes := v.GetStringSlice("currency.enabled"); len(codes) > 0 {
		s.Currencies = codes
	}
	if units := v.GetStringSlice("units.allowed"); len(units) > 0 {
		s.Units = units
	}
	if depts := v.GetStringSlice("company.labour_departments"); len(depts) > 0 {
		s.LabourDepartments = depts
	}

	setInt := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}
	setInt("currency.history_size", &s.CurrencyHistorySize)
	setInt("currency.history_displayed", &s.RateHistoryDisplayed)
	setInt("history.unit_costs", &s.UnitCostHistorySize)
	setInt("history.packages", &s.PackageHistorySize)
	setInt("history.totals", &s.TotalsHistorySize)
	setInt("history.material_prices", &s.MaterialHistorySize)

	if p := v.GetString("database.path"); p != "" {
		s.DatabasePath = p
	}
	if c := v.GetString("database.codec"); c != "" {
		s.DatabaseCodec = c
	}
	if r := v.GetString("database.repo"); r != "" {
		s.Repo = r
	}
	s.DatabasePath = ExpandPath(s.DatabasePath)

	s.RatesBaseURL = v.GetString("rates.base_url")
	s.RatesAPIKey = v.GetString("rates.api_key")
	if sched := v.GetString("rates.schedule"); sched != "" {
		s.RatesSchedule = sched
	}
	if v.IsSet("rates.timeout") {
		s.RatesTimeout = v.GetDuration("rates.timeout")
	}

	s.normalize()
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s *Settings) normalize() {
	s.DefaultCurrency = strings.ToUpper(strings.TrimSpace(s.DefaultCurrency))
	codes := make([]string, 0, len(s.Currencies)+1)
	for _, code := range s.Currencies {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code != "" && !slices.Contains(codes, code) {
			codes = append(codes, code)
		}
	}
	if s.DefaultCurrency != "" && !slices.Contains(codes, s.DefaultCurrency) {
		codes = append([]string{s.DefaultCurrency}, codes...)
	}
	s.Currencies = codes
}

// Validate checks if the settings are usable.
func (s *Settings) Validate() error {
	if len(s.DefaultCurrency) < 2 {
		return fmt.Errorf("%w: default currency %q", common.ErrInvalidConfig, s.DefaultCurrency)
	}
	limits := map[string]int{
		"currency.history_size":   s.CurrencyHistorySize,
		"history.unit_costs":      s.UnitCostHistorySize,
		"history.packages":        s.PackageHistorySize,
		"history.totals":          s.TotalsHistorySize,
		"history.material_prices": s.MaterialHistorySize,
	}
	for key, limit := range limits {
		if limit <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", common.ErrInvalidConfig, key, limit)
		}
	}
	if s.RateHistoryDisplayed < 0 {
		return fmt.Errorf("%w: currency.history_displayed cannot be negative", common.ErrInvalidConfig)
	}
	if s.Repo == "" {
		return fmt.Errorf("%w: database.repo", common.ErrMissingConfig)
	}
	return nil
}

// CurrencyEnabled reports whether code is one of the enabled currencies.
func (s Settings) CurrencyEnabled(code string) bool {
	return slices.Contains(s.Currencies, strings.ToUpper(code))
}

// UnitAllowed reports whether unit is in the allowed unit list. An empty list allows every unit.
func (s Settings) UnitAllowed(unit string) bool {
	if len(s.Units) == 0 {
		return true
	}
	for _, u := range s.Units {
		if strings.EqualFold(u, unit) {
			return true
		}
	}
	return false
}

// IsLabourDepartment reports whether wages in dept count as production labour.
func (s Settings) IsLabourDepartment(dept string) bool {
	dept = strings.TrimSpace(dept)
	for _, d := range s.LabourDepartments {
		if strings.EqualFold(d, dept) {
			return true
		}
	}
	return false
}
