// Package store persists term facts per domain in SQLite.
//
// Each term kind has its own table whose text columns follow the kind's
// extractor layout. A global_order table records the cross-kind authoring
// order of a domain: a term receives its order_index once, on first insert,
// and keeps it until the term is deleted. Indices are never reused; each
// domain row carries a high-water mark that only grows.
//
// The store assumes a single writer. Every mutating call commits its own
// transaction before returning.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"ontomodel/internal/logging"

	_ "github.com/mattn/go-sqlite3" // driver "sqlite3"
	_ "modernc.org/sqlite"          // driver "sqlite"
)

// Driver names registered with database/sql.
const (
	DriverMattn   = "sqlite3"
	DriverModernc = "sqlite"
)

var (
	// ErrDomainExists is returned by CreateDomain for a taken name.
	ErrDomainExists = errors.New("domain already exists")
	// ErrDomainNotFound is returned when a named domain has no row.
	ErrDomainNotFound = errors.New("domain not found")
	// ErrTermNotFound is returned by GetTerm for a missing id.
	ErrTermNotFound = errors.New("term not found")
)

// Options configures Open.
type Options struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration
}

// TermStore implements term persistence on database/sql.
type TermStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
	driver string
}

// Open initializes the SQLite database described by opts.
func Open(opts Options) (*TermStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	if opts.Driver == "" {
		opts.Driver = DriverMattn
	}
	if opts.Driver != DriverMattn && opts.Driver != DriverModernc {
		return nil, fmt.Errorf("unsupported sqlite driver %q", opts.Driver)
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = 5 * time.Second
	}

	logging.Store("Opening TermStore at %s (driver=%s)", opts.Path, opts.Driver)

	if opts.Path != ":memory:" {
		dir := filepath.Dir(opts.Path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			logging.StoreError("Failed to create directory %s: %v", dir, err)
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open(opts.Driver, opts.Path)
	if err != nil {
		logging.StoreError("Failed to open database at %s: %v", opts.Path, err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps :memory: databases alive and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", opts.BusyTimeout.Milliseconds())); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		logging.StoreDebug("Failed to enable foreign keys: %v", err)
	}
	if opts.Path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
		}
	}

	s := &TermStore{db: db, dbPath: opts.Path, driver: opts.Driver}
	if err := s.initialize(); err != nil {
		logging.StoreError("Failed to initialize schema: %v", err)
		db.Close()
		return nil, err
	}

	logging.Store("TermStore ready")
	return s, nil
}

// Close closes the underlying database.
func (s *TermStore) Close() error {
	logging.Store("Closing TermStore database connection")
	return s.db.Close()
}

// GetDB returns the underlying SQL database connection.
func (s *TermStore) GetDB() *sql.DB {
	return s.db
}

// Driver returns the database/sql driver name in use.
func (s *TermStore) Driver() string {
	return s.driver
}

// withTx runs fn in a transaction and commits on success.
func (s *TermStore) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
