package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ontomodel/internal/logging"
	"ontomodel/internal/termfact"
)

// SaveResult reports what Save did.
type SaveResult int

const (
	Unchanged SaveResult = iota
	Inserted
	Updated
)

func (r SaveResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	default:
		return "unchanged"
	}
}

// TermKey identifies a term within a domain.
type TermKey struct {
	Kind termfact.Kind `json:"kind"`
	Name string        `json:"name"`
}

// OrderedTerm is one global_order entry joined with its term name.
type OrderedTerm struct {
	OrderIndex int64
	Kind       termfact.Kind
	TermID     int64
	Name       string
}

// Key returns the (kind, name) identity of the entry.
func (o OrderedTerm) Key() TermKey {
	return TermKey{Kind: o.Kind, Name: o.Name}
}

// Save persists fact under domain. An identical stored row is a no-op; a
// differing row is updated in place and keeps its order index; a new term is
// inserted and appended to the domain's global order.
func (s *TermStore) Save(fact termfact.Fact, domain string) (SaveResult, error) {
	e, err := termfact.For(fact.Kind())
	if err != nil {
		return Unchanged, err
	}
	if fact.Term == "" {
		return Unchanged, fmt.Errorf("save %s term: empty term name", fact.Kind())
	}
	if domain == "" {
		return Unchanged, fmt.Errorf("domain name required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row := e.FactToRow(fact)
	result := Unchanged
	err = s.withTx(func(tx *sql.Tx) error {
		domainID, err := ensureDomain(tx, domain)
		if err != nil {
			return err
		}

		id, existing, err := selectRow(tx, e, domainID, fact.Term)
		switch {
		case errors.Is(err, ErrTermNotFound):
			id, err = insertRow(tx, e, domainID, row)
			if err != nil {
				return err
			}
			if err := appendOrder(tx, domainID, e.Kind(), id); err != nil {
				return err
			}
			result = Inserted
		case err != nil:
			return err
		case existing.Equal(row):
			result = Unchanged
		default:
			if err := updateRow(tx, e, id, row); err != nil {
				return err
			}
			result = Updated
		}
		return nil
	})
	if err != nil {
		logging.StoreError("Save %s/%s %q failed: %v", domain, fact.Kind(), fact.Term, err)
		return Unchanged, err
	}

	switch result {
	case Inserted:
		logging.Audit().TermChanged(logging.AuditTermInsert, domain, string(fact.Kind()), fact.Term)
	case Updated:
		logging.Audit().TermChanged(logging.AuditTermUpdate, domain, string(fact.Kind()), fact.Term)
	}
	logging.StoreDebug("Save %s/%s %q: %s", domain, fact.Kind(), fact.Term, result)
	return result, nil
}

func selectRow(tx *sql.Tx, e termfact.Extractor, domainID int64, term string) (int64, termfact.Row, error) {
	cols := e.Columns()
	query := fmt.Sprintf("SELECT id, %s FROM %s WHERE domain_id = ? AND term = ?",
		strings.Join(cols, ", "), e.Table())

	values := make([]string, len(cols))
	var id int64
	dest := make([]any, 0, len(cols)+1)
	dest = append(dest, &id)
	for i := range values {
		dest = append(dest, &values[i])
	}
	err := tx.QueryRow(query, domainID, term).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil, ErrTermNotFound
	}
	if err != nil {
		return 0, nil, fmt.Errorf("select %s row: %w", e.Kind(), err)
	}
	return id, termfact.Row(values), nil
}

func insertRow(tx *sql.Tx, e termfact.Extractor, domainID int64, row termfact.Row) (int64, error) {
	cols := e.Columns()
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)+1), ", ")
	query := fmt.Sprintf("INSERT INTO %s (domain_id, %s) VALUES (%s)",
		e.Table(), strings.Join(cols, ", "), placeholders)

	args := make([]any, 0, len(cols)+1)
	args = append(args, domainID)
	for i := range cols {
		args = append(args, columnValue(row, i))
	}
	res, err := tx.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert %s row: %w", e.Kind(), err)
	}
	return res.LastInsertId()
}

func updateRow(tx *sql.Tx, e termfact.Extractor, id int64, row termfact.Row) error {
	cols := e.Columns()
	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		sets[i] = col + " = ?"
		args = append(args, columnValue(row, i))
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", e.Table(), strings.Join(sets, ", "))
	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("update %s row: %w", e.Kind(), err)
	}
	return nil
}

func columnValue(row termfact.Row, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// appendOrder gives a freshly inserted term the next order index of its domain.
func appendOrder(tx *sql.Tx, domainID int64, kind termfact.Kind, termID int64) error {
	var last, maxExisting int64
	if err := tx.QueryRow("SELECT last_order FROM domains WHERE id = ?", domainID).Scan(&last); err != nil {
		return fmt.Errorf("read order mark: %w", err)
	}
	if err := tx.QueryRow("SELECT COALESCE(MAX(order_index), 0) FROM global_order WHERE domain_id = ?", domainID).Scan(&maxExisting); err != nil {
		return fmt.Errorf("read max order: %w", err)
	}
	next := max(last, maxExisting) + 1

	if _, err := tx.Exec("INSERT INTO global_order (domain_id, order_index, kind, term_id) VALUES (?, ?, ?, ?)",
		domainID, next, string(kind), termID); err != nil {
		return fmt.Errorf("append order: %w", err)
	}
	if _, err := tx.Exec("UPDATE domains SET last_order = ? WHERE id = ?", next, domainID); err != nil {
		return fmt.Errorf("advance order mark: %w", err)
	}
	return nil
}

// orderedQuery joins global_order with every kind table to recover names.
func orderedQuery() string {
	parts := make([]string, 0, len(termfact.Kinds))
	for _, e := range termfact.All() {
		parts = append(parts, fmt.Sprintf(
			"SELECT g.order_index, g.kind, g.term_id, t.term FROM global_order g JOIN %s t ON t.id = g.term_id WHERE g.kind = '%s' AND g.domain_id = ?",
			e.Table(), e.Kind()))
	}
	return strings.Join(parts, " UNION ALL ") + " ORDER BY 1"
}

// GetOrderedTerms returns the cross-kind authoring order of domain.
// An unknown domain has no terms.
func (s *TermStore) GetOrderedTerms(domain string) ([]OrderedTerm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orderedTerms(s.db, domain)
}

func (s *TermStore) orderedTerms(q queryer, domain string) ([]OrderedTerm, error) {
	domainID, err := lookupDomain(q, domain)
	if errors.Is(err, ErrDomainNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	args := make([]any, len(termfact.Kinds))
	for i := range args {
		args[i] = domainID
	}
	rows, err := q.Query(orderedQuery(), args...)
	if err != nil {
		return nil, fmt.Errorf("ordered terms: %w", err)
	}
	defer rows.Close()

	var out []OrderedTerm
	for rows.Next() {
		var o OrderedTerm
		var kind string
		if err := rows.Scan(&o.OrderIndex, &kind, &o.TermID, &o.Name); err != nil {
			return nil, fmt.Errorf("scan ordered term: %w", err)
		}
		o.Kind = termfact.Kind(kind)
		out = append(out, o)
	}
	return out, rows.Err()
}

// GetTerm returns the stored row of one term by kind and id.
func (s *TermStore) GetTerm(kind termfact.Kind, id int64) (termfact.Row, error) {
	e, err := termfact.For(kind)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	cols := e.Columns()
	values := make([]string, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", strings.Join(cols, ", "), e.Table())
	err = s.db.QueryRow(query, id).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s #%d", ErrTermNotFound, kind, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s term %d: %w", kind, id, err)
	}
	return termfact.Row(values), nil
}

// LoadFacts returns every fact of domain in authoring order.
func (s *TermStore) LoadFacts(domain string) ([]termfact.Fact, error) {
	ordered, err := s.GetOrderedTerms(domain)
	if err != nil {
		return nil, err
	}
	facts := make([]termfact.Fact, 0, len(ordered))
	for _, o := range ordered {
		e, err := termfact.For(o.Kind)
		if err != nil {
			return nil, err
		}
		row, err := s.GetTerm(o.Kind, o.TermID)
		if err != nil {
			return nil, err
		}
		facts = append(facts, e.RowToFact(row))
	}
	return facts, nil
}

// Delete removes one term and its global_order entry. It reports whether a
// row existed.
func (s *TermStore) Delete(domain string, kind termfact.Kind, term string) (bool, error) {
	e, err := termfact.For(kind)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := false
	err = s.withTx(func(tx *sql.Tx) error {
		domainID, err := lookupDomain(tx, domain)
		if err != nil {
			return err
		}
		deleted, err = deleteTerm(tx, e, domainID, term)
		return err
	})
	if err != nil {
		return false, err
	}
	if deleted {
		logging.Store("Deleted %s/%s %q", domain, kind, term)
		logging.Audit().TermChanged(logging.AuditTermDelete, domain, string(kind), term)
	}
	return deleted, nil
}

func deleteTerm(tx *sql.Tx, e termfact.Extractor, domainID int64, term string) (bool, error) {
	id, _, err := selectRow(tx, e, domainID, term)
	if errors.Is(err, ErrTermNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, err := tx.Exec("DELETE FROM global_order WHERE domain_id = ? AND kind = ? AND term_id = ?",
		domainID, string(e.Kind()), id); err != nil {
		return false, fmt.Errorf("delete order entry: %w", err)
	}
	if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", e.Table()), id); err != nil {
		return false, fmt.Errorf("delete %s row: %w", e.Kind(), err)
	}
	return true, nil
}

// Reconcile deletes every stored term of domain whose (kind, name) is not in
// current. Run it once per full extraction pass, after all saves.
func (s *TermStore) Reconcile(domain string, current []TermKey) ([]TermKey, error) {
	keep := make(map[TermKey]bool, len(current))
	for _, k := range current {
		keep[k] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []TermKey
	err := s.withTx(func(tx *sql.Tx) error {
		domainID, err := lookupDomain(tx, domain)
		if errors.Is(err, ErrDomainNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		stored, err := s.orderedTerms(tx, domain)
		if err != nil {
			return err
		}
		for _, o := range stored {
			if keep[o.Key()] {
				continue
			}
			e, err := termfact.For(o.Kind)
			if err != nil {
				return err
			}
			if _, err := deleteTerm(tx, e, domainID, o.Name); err != nil {
				return err
			}
			removed = append(removed, o.Key())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, k := range removed {
		logging.Audit().TermChanged(logging.AuditTermDelete, domain, string(k.Kind), k.Name)
	}
	logging.Store("Reconciled %s: kept=%d removed=%d", domain, len(current), len(removed))
	return removed, nil
}
