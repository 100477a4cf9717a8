package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Load decodes the table stored under (repo, table) into dst.
// A table that was never saved is reported with found=false and a nil error.
func (s *SQLiteStorage) Load(ctx context.Context, repo, table string, dst any) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateKey(repo, table); err != nil {
		return false, err
	}
	if dst == nil {
		return false, fmt.Errorf("%w: dst", ErrNilParameter)
	}

	key := tableKey{repo: repo, table: table}
	entry, ok := s.getCachedTable(key)
	if !ok {
		err := s.db.QueryRowContext(ctx, `
			SELECT data, codec
			FROM kv_tables
			WHERE repo = ? AND name = ?
		`, repo, table).Scan(&entry.data, &entry.codec)

		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("failed to load table %s/%s: %w", repo, table, err)
		}
		s.cacheTable(key, entry)
	}

	codec, err := CodecByName(entry.codec)
	if err != nil {
		return false, err
	}
	if err := codec.Unmarshal(entry.data, dst); err != nil {
		return false, fmt.Errorf("failed to decode table %s/%s: %w", repo, table, err)
	}
	return true, nil
}

// Save replaces the table stored under (repo, table) with data.
func (s *SQLiteStorage) Save(ctx context.Context, repo, table string, data any) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateKey(repo, table); err != nil {
		return err
	}

	encoded, err := s.codec.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode table %s/%s: %w", repo, table, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kv_tables (repo, name, data, codec, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(repo, name) DO UPDATE SET
			data = excluded.data,
			codec = excluded.codec,
			updated_at = excluded.updated_at
	`, repo, table, encoded, s.codec.Name(), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save table %s/%s: %w", repo, table, err)
	}

	s.cacheTable(tableKey{repo: repo, table: table}, cachedTable{data: encoded, codec: s.codec.Name()})
	slog.Debug("Saved table", "repo", repo, "table", table, "bytes", len(encoded), "codec", s.codec.Name())
	return nil
}

// Tables lists the table names stored under repo, sorted by name.
func (s *SQLiteStorage) Tables(ctx context.Context, repo string) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateName(repo, "repo"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM kv_tables WHERE repo = ? ORDER BY name
	`, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Delete removes the table stored under (repo, table).
func (s *SQLiteStorage) Delete(ctx context.Context, repo, table string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateKey(repo, table); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_tables WHERE repo = ? AND name = ?`, repo, table); err != nil {
		return fmt.Errorf("failed to delete table %s/%s: %w", repo, table, err)
	}
	s.evictTable(tableKey{repo: repo, table: table})
	return nil
}
