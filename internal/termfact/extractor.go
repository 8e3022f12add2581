package termfact

import (
	"fmt"
	"regexp"
	"strings"

	"ontomodel/internal/logging"
)

// Row is the persisted column layout of one term, in the order given by the
// extractor's Columns. Row[0] is always the term name.
type Row []string

// Equal reports whether two rows hold the same column values.
func (r Row) Equal(other Row) bool {
	if len(r) != len(other) {
		return false
	}
	for i := range r {
		if r[i] != other[i] {
			return false
		}
	}
	return true
}

// Term returns the term-name column.
func (r Row) Term() string {
	if len(r) == 0 {
		return ""
	}
	return r[0]
}

// Extractor is the capability set shared by every term kind.
type Extractor interface {
	Kind() Kind
	// Extract parses a canonical sentence. It never fails; unmatched slots stay empty.
	Extract(sentence string) Fact
	// Reconstruct writes the canonical sentence for a fact.
	Reconstruct(f Fact) string
	// Table and Columns describe the persisted layout. Columns()[0] is "term".
	Table() string
	Columns() []string
	RowToFact(r Row) Fact
	FactToRow(f Fact) Row
}

// Built-in set names usable wherever a set reference is expected.
const (
	BuiltinNames    = "names"
	BuiltinReals    = "real numbers"
	BuiltinIntegers = "integers"
)

// IsBuiltinSet reports whether name is one of the built-in sets, with or
// without the "the set of " prefix used in mapping slots.
func IsBuiltinSet(name string) bool {
	switch strings.TrimPrefix(name, "the set of ") {
	case BuiltinNames, BuiltinReals, BuiltinIntegers:
		return true
	}
	return false
}

const (
	headPrefix    = "Concept "
	headConnector = " volume consists of "
)

var headPattern = regexp.MustCompile(`^Concept\s+(.+?)\s+volume consists of\s+(.*)$`)

// splitHead separates the term-name slot from the kind-specific tail.
func splitHead(sentence string) (term, tail string, ok bool) {
	m := headPattern.FindStringSubmatch(strings.TrimSpace(sentence))
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}

// Head returns the sentence prefix shared by every kind, up to and including
// "volume consists of ".
func Head(term string) string {
	return headPrefix + term + headConnector
}

// splitList parses a comma-separated slot. An empty slot yields nil.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinList(values []string) string {
	return strings.Join(values, ", ")
}

// column returns r[i] or "" when the row is short.
func column(r Row, i int) string {
	if i < len(r) {
		return r[i]
	}
	return ""
}

// logMismatch records a template miss; extraction itself stays silent.
func logMismatch(kind Kind, sentence string) {
	logging.ExtractDebug("%s template did not match: %q", kind, sentence)
}

var registry = map[Kind]Extractor{}

func register(e Extractor) {
	registry[e.Kind()] = e
}

func init() {
	register(scalarExtractor{})
	register(dimensionalExtractor{})
	register(setExtractor{})
	register(mappingExtractor{})
	register(unionExtractor{})
	register(structuralExtractor{})
	register(sequenceExtractor{})
}

// For returns the extractor registered for kind.
func For(kind Kind) (Extractor, error) {
	e, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return e, nil
}

// All returns every extractor in canonical kind order.
func All() []Extractor {
	out := make([]Extractor, 0, len(Kinds))
	for _, k := range Kinds {
		out = append(out, registry[k])
	}
	return out
}

// detectors are checked in order; structural must precede set because both
// tails start with "finite subsets of".
var detectors = []struct {
	kind   Kind
	marker string
}{
	{KindScalar, "the set of scalar values:"},
	{KindDimensional, "dimensional values"},
	{KindMapping, "finite mappings."},
	{KindUnion, "the union of the volumes of concepts"},
	{KindStructural, "structured objects sharing the same structure"},
	{KindSequence, "finite sequences"},
	{KindSet, "subsets of"},
}

// Detect picks the kind whose connective phrase occurs in the sentence tail.
func Detect(sentence string) (Kind, bool) {
	_, tail, ok := splitHead(sentence)
	if !ok {
		return "", false
	}
	for _, d := range detectors {
		if strings.Contains(tail, d.marker) {
			return d.kind, true
		}
	}
	return "", false
}

// Extract detects the kind when kind is empty and runs the matching extractor.
func Extract(kind Kind, sentence string) (Fact, error) {
	if kind == "" {
		k, ok := Detect(sentence)
		if !ok {
			return Fact{}, fmt.Errorf("%w: cannot detect kind of %q", ErrUnknownKind, sentence)
		}
		kind = k
	}
	e, err := For(kind)
	if err != nil {
		return Fact{}, err
	}
	return e.Extract(sentence), nil
}

// Reconstruct writes the canonical sentence for f using its own kind.
func Reconstruct(f Fact) (string, error) {
	e, err := For(f.Kind())
	if err != nil {
		return "", err
	}
	return e.Reconstruct(f), nil
}
