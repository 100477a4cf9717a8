package storage

import (
	"context"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the schema version Migrate must reach.
const ExpectedSchemaVersion = 2

// schemaStep moves the database to version by running statements in one transaction.
type schemaStep struct {
	about      string
	statements []string
	version    int
}

var schemaSteps = []schemaStep{
	{
		version: 1,
		about:   "key-value table store",
		statements: []string{`
			CREATE TABLE IF NOT EXISTS kv_tables (
				repo TEXT NOT NULL,
				name TEXT NOT NULL,
				data BLOB NOT NULL,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				PRIMARY KEY (repo, name)
			)`,
		},
	},
	{
		version: 2,
		about:   "per-table codec column",
		statements: []string{
			`ALTER TABLE kv_tables ADD COLUMN codec TEXT NOT NULL DEFAULT 'json'`,
			`CREATE INDEX IF NOT EXISTS idx_kv_tables_updated_at ON kv_tables(updated_at)`,
		},
	},
}

// Migrate brings the schema up to ExpectedSchemaVersion. Each step commits on its own, so a failed
// step leaves the database at the previous version.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, step := range schemaSteps {
		if step.version <= current {
			continue
		}
		if err := s.applyStep(ctx, step); err != nil {
			return fmt.Errorf("schema version %d (%s): %w", step.version, step.about, err)
		}
		slog.Info("Upgraded database schema", "version", step.version, "change", step.about)
	}

	reached, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if reached != ExpectedSchemaVersion {
		return fmt.Errorf("%w: database at schema version %d, want %d", ErrSchemaVersion, reached, ExpectedSchemaVersion)
	}
	return nil
}

func (s *SQLiteStorage) applyStep(ctx context.Context, step schemaStep) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range step.statements {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	// PRAGMA does not take bind parameters.
	if _, err = tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", step.version)); err != nil {
		return fmt.Errorf("record version: %w", err)
	}
	return tx.Commit()
}

// SchemaVersion returns the schema version recorded in the database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}
