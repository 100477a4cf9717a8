// Package service defines the interfaces shared between the engine and its collaborators.
package service

import (
	"context"
	"time"
)

// Storage is the persistence adapter contract. Values are whole tables stored under a
// (repo, table) key; the engine never reads or writes partial tables.
type Storage interface {
	// Load decodes the table into dst. found is false when the table was never saved.
	Load(ctx context.Context, repo, table string, dst any) (found bool, err error)
	// Save replaces the table with data.
	Save(ctx context.Context, repo, table string, data any) error
	// Tables lists the table names saved under repo.
	Tables(ctx context.Context, repo string) ([]string, error)
	// Delete removes a table. Deleting a missing table is not an error.
	Delete(ctx context.Context, repo, table string) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
