package store

import (
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ontomodel/internal/termfact"
)

func openTestStore(t *testing.T) *TermStore {
	t.Helper()
	s, err := Open(Options{Driver: DriverModernc, Path: filepath.Join(t.TempDir(), "terms.db")})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustExtract(t *testing.T, sentence string) termfact.Fact {
	t.Helper()
	f, err := termfact.Extract("", sentence)
	if err != nil {
		t.Fatalf("Extract(%q): %v", sentence, err)
	}
	return f
}

func mustSave(t *testing.T, s *TermStore, f termfact.Fact, domain string) SaveResult {
	t.Helper()
	res, err := s.Save(f, domain)
	if err != nil {
		t.Fatalf("Save(%s): %v", f.Term, err)
	}
	return res
}

func orderOf(t *testing.T, s *TermStore, domain string) map[string]int64 {
	t.Helper()
	ordered, err := s.GetOrderedTerms(domain)
	if err != nil {
		t.Fatalf("GetOrderedTerms: %v", err)
	}
	out := make(map[string]int64, len(ordered))
	for _, o := range ordered {
		out[o.Name] = o.OrderIndex
	}
	return out
}

var geometry = []string{
	"Concept radius volume consists of positive dimensional values",
	"Concept colour volume consists of the set of scalar values: red, green",
	"Concept ids volume consists of finite subsets of the set of integers",
	"Concept box volume consists of finite subsets of structured objects sharing the same structure. The attributes of these structured objects are width",
	"Concept width volume consists of finite mappings. The domain of the mapping is box. The codomain of the mapping is the set of real numbers.",
	"Concept shape volume consists of values belonging to the union of the volumes of concepts named by the terms box, ids.",
	"Concept path volume consists of an infinite set of finite sequences, the elements of each sequence belonging to the finite set ids",
}

func TestSaveAndLoadFactsInOrder(t *testing.T) {
	s := openTestStore(t)

	var want []termfact.Fact
	for _, sentence := range geometry {
		f := mustExtract(t, sentence)
		if res := mustSave(t, s, f, "Geometry"); res != Inserted {
			t.Fatalf("first save of %s = %s, want inserted", f.Term, res)
		}
		want = append(want, f)
	}

	got, err := s.LoadFacts("Geometry")
	if err != nil {
		t.Fatalf("LoadFacts: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadFacts mismatch (-want +got):\n%s", diff)
	}

	ordered, _ := s.GetOrderedTerms("Geometry")
	for i := 1; i < len(ordered); i++ {
		if ordered[i].OrderIndex <= ordered[i-1].OrderIndex {
			t.Errorf("order not strictly increasing at %d: %v", i, ordered)
		}
	}
}

func TestSaveUnchangedKeepsOrder(t *testing.T) {
	s := openTestStore(t)
	radius := mustExtract(t, geometry[0])
	colour := mustExtract(t, geometry[1])

	mustSave(t, s, radius, "Geometry")
	mustSave(t, s, colour, "Geometry")
	before := orderOf(t, s, "Geometry")

	if res := mustSave(t, s, radius, "Geometry"); res != Unchanged {
		t.Errorf("resave = %s, want unchanged", res)
	}

	changed := mustExtract(t, "Concept radius volume consists of nonnegative dimensional values")
	if res := mustSave(t, s, changed, "Geometry"); res != Updated {
		t.Errorf("changed save = %s, want updated", res)
	}

	after := orderOf(t, s, "Geometry")
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("order changed (-before +after):\n%s", diff)
	}

	var mark int64
	if err := s.GetDB().QueryRow("SELECT last_order FROM domains WHERE name = ?", "Geometry").Scan(&mark); err != nil {
		t.Fatal(err)
	}
	if mark != 2 {
		t.Errorf("last_order = %d, want 2 (no bump on unchanged/updated saves)", mark)
	}
}

func TestOrderIndicesNeverReused(t *testing.T) {
	s := openTestStore(t)
	a := mustExtract(t, geometry[0])
	b := mustExtract(t, geometry[1])

	mustSave(t, s, a, "G")
	mustSave(t, s, b, "G")
	first := orderOf(t, s, "G")

	deleted, err := s.Delete("G", b.Kind(), b.Term)
	if err != nil || !deleted {
		t.Fatalf("Delete = %v, %v", deleted, err)
	}
	mustSave(t, s, b, "G")

	again := orderOf(t, s, "G")
	if again[b.Term] <= first[b.Term] {
		t.Errorf("re-created term got index %d, previous was %d", again[b.Term], first[b.Term])
	}
	if again[a.Term] != first[a.Term] {
		t.Errorf("untouched term moved from %d to %d", first[a.Term], again[a.Term])
	}
}

func TestDomainsAreIndependent(t *testing.T) {
	s := openTestStore(t)
	f := mustExtract(t, geometry[0])

	mustSave(t, s, f, "A")
	if res := mustSave(t, s, f, "B"); res != Inserted {
		t.Errorf("same term in another domain = %s, want inserted", res)
	}
	if orderOf(t, s, "B")[f.Term] != 1 {
		t.Errorf("each domain starts its own sequence")
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	f := mustExtract(t, geometry[2])
	mustSave(t, s, f, "G")

	if ok, err := s.Delete("G", termfact.KindScalar, f.Term); err != nil || ok {
		t.Errorf("delete under wrong kind = %v, %v", ok, err)
	}
	if ok, err := s.Delete("G", f.Kind(), f.Term); err != nil || !ok {
		t.Fatalf("Delete = %v, %v", ok, err)
	}
	if ok, _ := s.Delete("G", f.Kind(), f.Term); ok {
		t.Error("second delete should report nothing removed")
	}
	if _, err := s.Delete("missing", f.Kind(), f.Term); !errors.Is(err, ErrDomainNotFound) {
		t.Errorf("delete in unknown domain err = %v", err)
	}

	var n int
	s.GetDB().QueryRow("SELECT COUNT(*) FROM global_order").Scan(&n)
	if n != 0 {
		t.Errorf("global_order still has %d rows", n)
	}
}

func TestReconcile(t *testing.T) {
	s := openTestStore(t)
	var keys []TermKey
	for _, sentence := range geometry {
		f := mustExtract(t, sentence)
		mustSave(t, s, f, "G")
		keys = append(keys, TermKey{Kind: f.Kind(), Name: f.Term})
	}

	// Keep everything but colour and path; re-declare ids under another kind.
	current := []TermKey{keys[0], keys[3], keys[4], keys[5], {Kind: termfact.KindScalar, Name: "ids"}}

	removed, err := s.Reconcile("G", current)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	want := []TermKey{keys[1], keys[2], keys[6]}
	if diff := cmp.Diff(want, removed); diff != "" {
		t.Errorf("removed mismatch (-want +got):\n%s", diff)
	}

	left, _ := s.GetOrderedTerms("G")
	if len(left) != 4 {
		t.Fatalf("expected 4 terms left, got %d", len(left))
	}
	for _, table := range []string{"scalar_terms", "set_terms", "sequence_terms"} {
		var n int
		s.GetDB().QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n)
		if n != 0 {
			t.Errorf("%s still has %d rows", table, n)
		}
	}

	if removed, err := s.Reconcile("nobody", nil); err != nil || removed != nil {
		t.Errorf("reconcile of unknown domain = %v, %v", removed, err)
	}
}

func TestCreateAndListDomains(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.CreateDomain("Zoology"); err != nil {
		t.Fatalf("CreateDomain: %v", err)
	}
	if _, err := s.CreateDomain("Zoology"); !errors.Is(err, ErrDomainExists) {
		t.Errorf("duplicate CreateDomain err = %v, want ErrDomainExists", err)
	}
	mustSave(t, s, mustExtract(t, geometry[0]), "Algebra")

	id, err := s.EnsureDomain("Zoology")
	if err != nil || id == 0 {
		t.Errorf("EnsureDomain existing = %d, %v", id, err)
	}
	if _, err := s.DomainID("Botany"); !errors.Is(err, ErrDomainNotFound) {
		t.Errorf("DomainID missing err = %v", err)
	}

	domains, err := s.ListDomains()
	if err != nil {
		t.Fatalf("ListDomains: %v", err)
	}
	var names []string
	counts := map[string]int{}
	for _, d := range domains {
		names = append(names, d.Name)
		counts[d.Name] = d.TermCount
	}
	if diff := cmp.Diff([]string{"Algebra", "Zoology"}, names); diff != "" {
		t.Errorf("ListDomains names (-want +got):\n%s", diff)
	}
	if counts["Algebra"] != 1 || counts["Zoology"] != 0 {
		t.Errorf("term counts = %v", counts)
	}
}

func TestGetTerm(t *testing.T) {
	s := openTestStore(t)
	f := mustExtract(t, geometry[4])
	mustSave(t, s, f, "G")

	ordered, _ := s.GetOrderedTerms("G")
	row, err := s.GetTerm(termfact.KindMapping, ordered[0].TermID)
	if err != nil {
		t.Fatalf("GetTerm: %v", err)
	}
	if diff := cmp.Diff(termfact.Row{"width", "box", "the set of real numbers"}, row); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}
	if _, err := s.GetTerm(termfact.KindMapping, 999); !errors.Is(err, ErrTermNotFound) {
		t.Errorf("GetTerm missing err = %v", err)
	}
	if _, err := s.GetTerm("widget", 1); !errors.Is(err, termfact.ErrUnknownKind) {
		t.Errorf("GetTerm bad kind err = %v", err)
	}
}

func TestSaveRejectsIncompleteInput(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Save(termfact.Fact{Term: "x"}, "G"); !errors.Is(err, termfact.ErrUnknownKind) {
		t.Errorf("fact without kind err = %v", err)
	}
	if _, err := s.Save(termfact.Fact{Volume: termfact.ScalarVolume{}}, "G"); err == nil {
		t.Error("expected error for empty term name")
	}
}

func TestMigratesVersionOneSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	db, err := sql.Open(DriverModernc, path)
	if err != nil {
		t.Fatal(err)
	}
	_, err = db.Exec(`
		CREATE TABLE domains (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL UNIQUE);
		CREATE TABLE global_order (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			domain_id INTEGER NOT NULL,
			order_index INTEGER NOT NULL,
			kind TEXT NOT NULL,
			term_id INTEGER NOT NULL,
			UNIQUE(domain_id, order_index));
		CREATE TABLE scalar_terms (id INTEGER PRIMARY KEY AUTOINCREMENT, domain_id INTEGER NOT NULL, term TEXT NOT NULL, UNIQUE(domain_id, term));
		INSERT INTO domains (name) VALUES ('G');
		INSERT INTO scalar_terms (domain_id, term) VALUES (1, 'x');
		INSERT INTO global_order (domain_id, order_index, kind, term_id) VALUES (1, 7, 'scalar', 1);`)
	db.Close()
	if err != nil {
		t.Fatalf("seed v1 schema: %v", err)
	}

	s, err := Open(Options{Driver: DriverModernc, Path: path})
	if err != nil {
		t.Fatalf("Open old db: %v", err)
	}
	defer s.Close()

	if !columnExists(s.GetDB(), "scalar_terms", "values_list") {
		t.Error("values_list column not added")
	}
	if GetSchemaVersion(s.GetDB()) != CurrentSchemaVersion {
		t.Errorf("schema version = %d", GetSchemaVersion(s.GetDB()))
	}
	mustSave(t, s, mustExtract(t, geometry[0]), "G")
	if got := orderOf(t, s, "G")["radius"]; got != 8 {
		t.Errorf("new term index = %d, want 8", got)
	}
}

func TestDrivers(t *testing.T) {
	for _, driver := range []string{DriverMattn, DriverModernc} {
		t.Run(driver, func(t *testing.T) {
			s, err := Open(Options{Driver: driver, Path: filepath.Join(t.TempDir(), "terms.db")})
			if err != nil {
				if strings.Contains(err.Error(), "CGO_ENABLED") || strings.Contains(err.Error(), "cgo") {
					t.Skipf("%s unavailable: %v", driver, err)
				}
				t.Fatalf("Open: %v", err)
			}
			defer s.Close()
			if s.Driver() != driver {
				t.Errorf("Driver() = %s", s.Driver())
			}
			f := mustExtract(t, geometry[1])
			if res := mustSave(t, s, f, "G"); res != Inserted {
				t.Errorf("save = %s", res)
			}
			if res := mustSave(t, s, f, "G"); res != Unchanged {
				t.Errorf("resave = %s", res)
			}
		})
	}

	if _, err := Open(Options{Driver: "postgres", Path: "x"}); err == nil {
		t.Error("expected unsupported driver error")
	}
}
