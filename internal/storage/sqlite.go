package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// tableCacheTTL bounds how long encoded table rows are served from memory.
const tableCacheTTL = 5 * time.Minute

// SQLiteStorage implements service.Storage as key-value tables in SQLite.
type SQLiteStorage struct {
	cacheExpiry time.Time
	db          *sql.DB
	codec       Codec
	tableCache  map[tableKey]cachedTable
	dbPath      string
	cacheMutex  sync.RWMutex
}

type tableKey struct {
	repo  string
	table string
}

type cachedTable struct {
	codec string
	data  []byte
}

// Option configures a SQLiteStorage.
type Option func(*SQLiteStorage)

// WithCodec sets the codec used for new writes. Existing rows keep the codec they were written with.
func WithCodec(codec Codec) Option {
	return func(s *SQLiteStorage) {
		if codec != nil {
			s.codec = codec
		}
	}
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string, opts ...Option) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't benefit from multiple connections
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStorage{
		db:         db,
		dbPath:     dbPath,
		codec:      JSONCodec{},
		tableCache: make(map[tableKey]cachedTable),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

func (s *SQLiteStorage) getCachedTable(key tableKey) (cachedTable, bool) {
	s.cacheMutex.RLock()

	if time.Now().After(s.cacheExpiry) {
		s.cacheMutex.RUnlock()
		s.cacheMutex.Lock()
		defer s.cacheMutex.Unlock()

		// Double-check after acquiring write lock
		if time.Now().After(s.cacheExpiry) {
			s.tableCache = make(map[tableKey]cachedTable)
		}
		return cachedTable{}, false
	}

	entry, ok := s.tableCache[key]
	s.cacheMutex.RUnlock()
	return entry, ok
}

func (s *SQLiteStorage) cacheTable(key tableKey, entry cachedTable) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()

	if len(s.tableCache) == 0 {
		s.cacheExpiry = time.Now().Add(tableCacheTTL)
	}
	s.tableCache[key] = entry
}

func (s *SQLiteStorage) evictTable(key tableKey) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()
	delete(s.tableCache, key)
}
