package store

import (
	"database/sql"
	"fmt"
	"strings"

	"ontomodel/internal/logging"
	"ontomodel/internal/termfact"
)

// Schema versions:
// v1: domains, global_order, one table per term kind
// v2: domains.last_order high-water mark so order indices are never reused
const CurrentSchemaVersion = 2

const baseSchema = `
CREATE TABLE IF NOT EXISTS domains (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	last_order INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS global_order (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	domain_id INTEGER NOT NULL REFERENCES domains(id) ON DELETE CASCADE,
	order_index INTEGER NOT NULL,
	kind TEXT NOT NULL,
	term_id INTEGER NOT NULL,
	UNIQUE(domain_id, order_index),
	UNIQUE(domain_id, kind, term_id)
);

CREATE INDEX IF NOT EXISTS idx_global_order_domain ON global_order(domain_id, order_index);

CREATE TABLE IF NOT EXISTS schema_versions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	version INTEGER NOT NULL,
	applied_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	description TEXT
);
`

// kindTableSchema builds the CREATE statement for one kind from its column layout.
func kindTableSchema(e termfact.Extractor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", e.Table())
	b.WriteString("\tid INTEGER PRIMARY KEY AUTOINCREMENT,\n")
	b.WriteString("\tdomain_id INTEGER NOT NULL REFERENCES domains(id) ON DELETE CASCADE,\n")
	for _, col := range e.Columns() {
		fmt.Fprintf(&b, "\t%s TEXT NOT NULL DEFAULT '',\n", col)
	}
	b.WriteString("\tUNIQUE(domain_id, term)\n)")
	return b.String()
}

// initialize creates the required tables and applies column migrations.
func (s *TermStore) initialize() error {
	if _, err := s.db.Exec(baseSchema); err != nil {
		return fmt.Errorf("failed to create base schema: %w", err)
	}
	for _, e := range termfact.All() {
		if _, err := s.db.Exec(kindTableSchema(e)); err != nil {
			return fmt.Errorf("failed to create %s table: %w", e.Table(), err)
		}
	}
	if err := RunMigrations(s.db); err != nil {
		return err
	}
	if GetSchemaVersion(s.db) < CurrentSchemaVersion {
		if err := SetSchemaVersion(s.db, CurrentSchemaVersion); err != nil {
			return err
		}
	}
	return nil
}

// Migration defines a database schema migration.
type Migration struct {
	Table  string
	Column string
	Def    string
}

// pendingMigrations lists column additions for databases created by older builds.
// Kind tables gain any layout column they are missing.
func pendingMigrations() []Migration {
	migrations := []Migration{
		{"domains", "last_order", "INTEGER NOT NULL DEFAULT 0"},
	}
	for _, e := range termfact.All() {
		for _, col := range e.Columns() {
			migrations = append(migrations, Migration{e.Table(), col, "TEXT NOT NULL DEFAULT ''"})
		}
	}
	return migrations
}

// RunMigrations applies schema migrations for existing databases.
func RunMigrations(db *sql.DB) error {
	timer := logging.StartTimer(logging.CategoryStore, "RunMigrations")
	defer timer.Stop()

	applied, skipped := 0, 0
	for _, m := range pendingMigrations() {
		if !tableExists(db, m.Table) {
			logging.StoreDebug("Table missing, skipping migration: %s.%s", m.Table, m.Column)
			skipped++
			continue
		}
		if columnExists(db, m.Table, m.Column) {
			skipped++
			continue
		}
		query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Def)
		logging.StoreDebug("Executing migration: %s", query)
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("migration %s.%s: %w", m.Table, m.Column, err)
		}
		logging.Store("Migration applied: added %s.%s", m.Table, m.Column)
		applied++
	}

	// v1 databases reused indices after deleting the newest term; seed the
	// high-water mark from what is already there.
	if applied > 0 {
		if _, err := db.Exec(`
			UPDATE domains SET last_order = (
				SELECT COALESCE(MAX(order_index), 0) FROM global_order WHERE global_order.domain_id = domains.id
			) WHERE last_order = 0`); err != nil {
			return fmt.Errorf("seed last_order: %w", err)
		}
	}

	logging.StoreDebug("Schema migrations complete: applied=%d, skipped=%d", applied, skipped)
	return nil
}

// columnExists checks if a column exists in a table using PRAGMA table_info.
func columnExists(db *sql.DB, table, column string) bool {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		logging.StoreDebug("PRAGMA table_info(%s) failed: %v", table, err)
		return false
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			continue
		}
		if name == column {
			return true
		}
	}
	return false
}

// tableExists checks if a table exists in the database.
func tableExists(db *sql.DB, table string) bool {
	var count int
	query := "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?"
	if err := db.QueryRow(query, table).Scan(&count); err != nil {
		logging.StoreDebug("Table existence check failed for %s: %v", table, err)
		return false
	}
	return count > 0
}

// GetSchemaVersion returns the latest recorded schema version, or 0.
func GetSchemaVersion(db *sql.DB) int {
	var version int
	err := db.QueryRow("SELECT version FROM schema_versions ORDER BY id DESC LIMIT 1").Scan(&version)
	if err != nil {
		return 0
	}
	return version
}

// SetSchemaVersion records a new schema version in the database.
func SetSchemaVersion(db *sql.DB, version int) error {
	desc := fmt.Sprintf("Migrated to schema version %d", version)
	if _, err := db.Exec("INSERT INTO schema_versions (version, description) VALUES (?, ?)", version, desc); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	logging.Store("Schema version set to %d", version)
	return nil
}
