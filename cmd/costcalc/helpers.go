package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/viper"

	"github.com/donis3/costcalc/internal/config"
	"github.com/donis3/costcalc/internal/engine"
	"github.com/donis3/costcalc/internal/storage"
)

func loadSettings() (config.Settings, error) {
	settings, err := config.LoadSettings(viper.GetViper())
	if err != nil {
		return config.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context, settings config.Settings) (*storage.SQLiteStorage, error) {
	codec, err := storage.CodecByName(settings.DatabaseCodec)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(settings.DatabasePath, storage.WithCodec(codec))
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// openEngine loads the engine from storage. The returned func closes the database.
func openEngine(ctx context.Context) (*engine.Engine, func(), error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, nil, err
	}

	store, err := initStorage(ctx, settings)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	closeStore := func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("failed to close storage", "error", closeErr)
		}
	}

	eng := engine.New(store, settings)
	if err := eng.Load(ctx); err != nil {
		closeStore()
		return nil, nil, fmt.Errorf("failed to load data: %w", err)
	}
	return eng, closeStore, nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func parseAmount(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return f, nil
}

func formatNumber(f float64, places int) string {
	return strconv.FormatFloat(f, 'f', places, 64)
}
