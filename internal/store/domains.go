package store

import (
	"database/sql"
	"errors"
	"fmt"

	"ontomodel/internal/logging"
)

// Domain is a named ontology workspace.
type Domain struct {
	ID        int64
	Name      string
	TermCount int
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
	Exec(query string, args ...any) (sql.Result, error)
}

func lookupDomain(q queryer, name string) (int64, error) {
	var id int64
	err := q.QueryRow("SELECT id FROM domains WHERE name = ?", name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %q", ErrDomainNotFound, name)
	}
	if err != nil {
		return 0, fmt.Errorf("lookup domain %q: %w", name, err)
	}
	return id, nil
}

func insertDomain(q queryer, name string) (int64, error) {
	res, err := q.Exec("INSERT INTO domains (name) VALUES (?)", name)
	if err != nil {
		return 0, fmt.Errorf("insert domain %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert domain %q: %w", name, err)
	}
	logging.Store("Created domain %q (id=%d)", name, id)
	logging.Audit().DomainCreated(name)
	return id, nil
}

// ensureDomain is the get-or-create used by Save.
func ensureDomain(q queryer, name string) (int64, error) {
	id, err := lookupDomain(q, name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, ErrDomainNotFound) {
		return 0, err
	}
	return insertDomain(q, name)
}

// CreateDomain inserts a new domain and fails with ErrDomainExists when the
// name is taken.
func (s *TermStore) CreateDomain(name string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("domain name required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var id int64
	err := s.withTx(func(tx *sql.Tx) error {
		if _, err := lookupDomain(tx, name); err == nil {
			return fmt.Errorf("%w: %q", ErrDomainExists, name)
		} else if !errors.Is(err, ErrDomainNotFound) {
			return err
		}
		var err error
		id, err = insertDomain(tx, name)
		return err
	})
	return id, err
}

// EnsureDomain returns the id of name, creating the domain when missing.
func (s *TermStore) EnsureDomain(name string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("domain name required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var id int64
	err := s.withTx(func(tx *sql.Tx) error {
		var err error
		id, err = ensureDomain(tx, name)
		return err
	})
	return id, err
}

// DomainID looks up an existing domain.
func (s *TermStore) DomainID(name string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lookupDomain(s.db, name)
}

// ListDomains returns every domain with its live term count, ordered by name.
func (s *TermStore) ListDomains() ([]Domain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT d.id, d.name, COUNT(g.id)
		FROM domains d
		LEFT JOIN global_order g ON g.domain_id = d.id
		GROUP BY d.id, d.name
		ORDER BY d.name`)
	if err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	defer rows.Close()

	var out []Domain
	for rows.Next() {
		var d Domain
		if err := rows.Scan(&d.ID, &d.Name, &d.TermCount); err != nil {
			return nil, fmt.Errorf("scan domain: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
