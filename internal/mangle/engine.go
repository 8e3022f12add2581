// Package mangle wraps the Google Mangle Datalog engine for rule checks over
// term facts.
package mangle

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"

	"ontomodel/internal/logging"
)

// Config holds Mangle engine configuration.
type Config struct {
	FactLimit int  `json:"fact_limit"`
	AutoEval  bool `json:"auto_eval"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{FactLimit: 50000, AutoEval: true}
}

// Engine holds one analyzed program and the facts it runs over. An engine is
// built per validation pass and discarded afterwards.
type Engine struct {
	config Config

	mu        sync.RWMutex
	store     factstore.ConcurrentFactStore
	program   *analysis.ProgramInfo
	preds     map[string]ast.PredicateSym
	fragments []parse.SourceUnit
	facts     int
	autoEval  bool
}

// Fact is one ground atom exchanged with the engine.
type Fact struct {
	Predicate string        `json:"predicate"`
	Args      []interface{} `json:"args"`
}

// Stats contains engine statistics.
type Stats struct {
	TotalFacts      int            `json:"total_facts"`
	PredicateCounts map[string]int `json:"predicate_counts"`
}

// NewEngine creates an engine with an empty program.
func NewEngine(cfg Config) (*Engine, error) {
	return &Engine{
		config:   cfg,
		store:    factstore.NewConcurrentFactStore(factstore.NewSimpleInMemoryStore()),
		preds:    make(map[string]ast.PredicateSym),
		autoEval: cfg.AutoEval,
	}, nil
}

// ToggleAutoEval enables or disables rule evaluation after fact insertion.
// When disabled, call RecomputeRules once the batch is in.
func (e *Engine) ToggleAutoEval(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.autoEval = enabled
}

// RecomputeRules evaluates every rule against the current fact store.
func (e *Engine) RecomputeRules() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.program == nil {
		return errNoProgram
	}
	return e.evalLocked()
}

var errNoProgram = fmt.Errorf("no schemas loaded; call LoadSchemaString first")

func (e *Engine) evalLocked() error {
	timer := logging.StartTimer(logging.CategoryKernel, "RecomputeRules")
	stats, err := mengine.EvalProgramWithStats(e.program, e.store)
	timer.Stop()
	if err != nil {
		return err
	}
	logging.KernelDebug("Evaluation complete: %+v", stats)
	return nil
}

// LoadSchemaString parses and analyzes a program fragment. Fragments
// accumulate and each load re-analyzes the combined program.
func (e *Engine) LoadSchemaString(schema string) error {
	unit, err := parse.Unit(bytes.NewReader([]byte(schema)))
	if err != nil {
		return fmt.Errorf("failed to parse schema: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var combined parse.SourceUnit
	for _, f := range append(e.fragments, unit) {
		combined.Clauses = append(combined.Clauses, f.Clauses...)
		combined.Decls = append(combined.Decls, f.Decls...)
	}
	program, err := analysis.AnalyzeOneUnit(combined, nil)
	if err != nil {
		return fmt.Errorf("failed to analyze schema: %w", err)
	}

	e.fragments = append(e.fragments, unit)
	e.program = program
	e.preds = make(map[string]ast.PredicateSym, len(program.Decls))
	for sym := range program.Decls {
		e.preds[sym.Symbol] = sym
	}
	return nil
}

// AddFacts inserts a batch of facts and, with auto-eval on, evaluates the
// rules once.
func (e *Engine) AddFacts(facts []Fact) error {
	if len(facts) == 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.program == nil {
		return errNoProgram
	}

	for _, f := range facts {
		if e.config.FactLimit > 0 && e.facts >= e.config.FactLimit {
			return fmt.Errorf("fact limit exceeded: %d", e.config.FactLimit)
		}
		atom, err := e.atomLocked(f)
		if err != nil {
			return err
		}
		if e.store.Add(atom) {
			e.facts++
		}
	}
	if e.autoEval {
		return e.evalLocked()
	}
	return nil
}

func (e *Engine) atomLocked(f Fact) (ast.Atom, error) {
	sym, ok := e.preds[f.Predicate]
	if !ok {
		return ast.Atom{}, fmt.Errorf("predicate %s is not declared in schemas", f.Predicate)
	}
	if len(f.Args) != sym.Arity {
		return ast.Atom{}, fmt.Errorf("predicate %s expects %d args, got %d", f.Predicate, sym.Arity, len(f.Args))
	}

	bounds := declaredBounds(e.program.Decls[sym])
	args := make([]ast.BaseTerm, len(f.Args))
	for i, raw := range f.Args {
		bound := ""
		if i < len(bounds) {
			bound = bounds[i]
		}
		term, err := toTerm(raw, bound)
		if err != nil {
			return ast.Atom{}, fmt.Errorf("predicate %s arg %d: %w", f.Predicate, i, err)
		}
		args[i] = term
	}
	return ast.Atom{Predicate: sym, Args: args}, nil
}

// declaredBounds returns the type names of the first bound declaration,
// e.g. ["/string", "/string"].
func declaredBounds(decl *ast.Decl) []string {
	if decl == nil || len(decl.Bounds) == 0 {
		return nil
	}
	var out []string
	for _, b := range decl.Bounds[0].Bounds {
		c, _ := b.(ast.Constant)
		out = append(out, c.Symbol)
	}
	return out
}

// toTerm converts a Go value to a Mangle constant. Under a /string bound a
// term name stays text even when it starts with a slash.
func toTerm(v interface{}, bound string) (ast.BaseTerm, error) {
	switch x := v.(type) {
	case string:
		switch {
		case bound == "/string":
			return ast.String(x), nil
		case bound == "/name" && !strings.HasPrefix(x, "/"):
			return ast.Name("/" + x)
		case strings.HasPrefix(x, "/"):
			return ast.Name(x)
		}
		return ast.String(x), nil
	case int:
		return ast.Number(int64(x)), nil
	case int64:
		return ast.Number(x), nil
	case float64:
		return ast.Float64(x), nil
	case ast.BaseTerm:
		return x, nil
	}
	return nil, fmt.Errorf("unsupported fact argument type %T", v)
}

// GetFacts returns every stored or derived fact for a predicate.
func (e *Engine) GetFacts(predicate string) ([]Fact, error) {
	e.mu.RLock()
	sym, ok := e.preds[predicate]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("predicate %s is not declared", predicate)
	}

	var out []Fact
	err := e.store.GetFacts(ast.NewQuery(sym), func(atom ast.Atom) error {
		args := make([]interface{}, len(atom.Args))
		for i, a := range atom.Args {
			args[i] = fromTerm(a)
		}
		out = append(out, Fact{Predicate: predicate, Args: args})
		return nil
	})
	return out, err
}

// GetStats returns per-predicate fact counts.
func (e *Engine) GetStats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	counts := make(map[string]int)
	for _, sym := range e.store.ListPredicates() {
		n := 0
		_ = e.store.GetFacts(ast.NewQuery(sym), func(ast.Atom) error {
			n++
			return nil
		})
		counts[sym.Symbol] = n
	}
	return Stats{TotalFacts: e.store.EstimateFactCount(), PredicateCounts: counts}
}

func fromTerm(t ast.BaseTerm) interface{} {
	c, ok := t.(ast.Constant)
	if !ok {
		return fmt.Sprint(t)
	}
	switch c.Type {
	case ast.StringType, ast.NameType, ast.BytesType:
		return c.Symbol
	case ast.NumberType:
		return c.NumValue
	case ast.Float64Type:
		return math.Float64frombits(uint64(c.NumValue))
	}
	return c.String()
}
