// Package compiler turns natural-language logical assertions into formal
// symbol strings and binary expression trees.
//
// Compilation is a fixed staged pipeline; each stage assumes the earlier ones
// already ran:
//
//  1. set-operator phrases        (intersection/union/difference of A and B)
//  2. arithmetic-operator phrases (sum, product, division, power, subtraction)
//  3. universal quantifiers       (for any value of concept C, ...)
//  4. relational and logical connectives, longest phrase first
//  5. negation                    (not x -> ¬x)
//  6. whitespace and parenthesis cleanup, stray "if" removal
//  7. expression tree
//  8. quantifier annotations hoisted to the front
//  9. "the empty set" -> ∅
//
// The compiler never fails. Phrases it does not recognise stay in the output
// as literal text.
package compiler

import (
	"sort"
	"strings"

	"ontomodel/internal/logging"
)

// Result is the outcome of compiling one assertion.
type Result struct {
	Source   string    `json:"source"`
	Formal   string    `json:"formal"`
	Tree     *Node     `json:"tree"`
	Bindings []Binding `json:"bindings,omitempty"`
}

// Compiler holds the declared term names used for quantifier anchoring.
type Compiler struct {
	terms []string
}

// New returns a compiler over the given term names. The list is copied,
// de-duplicated and ordered longest-first.
func New(terms []string) *Compiler {
	return &Compiler{terms: SortLongestFirst(terms)}
}

// Terms returns the anchoring term list in match order.
func (c *Compiler) Terms() []string {
	return append([]string(nil), c.terms...)
}

// Compile runs the full pipeline over one assertion.
func (c *Compiler) Compile(assertion string) Result {
	timer := logging.StartTimer(logging.CategoryCompiler, "Compile")
	defer timer.Stop()

	expr := applyRewrites(assertion, setOperations)
	expr = applyRewrites(expr, arithmeticOperations)

	q := &quantifierResolver{terms: c.terms}
	expr = q.resolve(expr)

	expr = applyPhrases(expr, relationalPhrases)
	expr = applyPhrases(expr, logicalPhrases)
	expr = applyNegation(expr)
	expr = normalize(expr)

	tree := BuildTree(expr)

	formal := replaceEmptySet(hoistBindings(expr))

	for _, b := range q.bindings {
		switch {
		case b.Fallback && b.Anchor == "":
			logging.CompilerWarn("No word after quantifier over %q; %s is unanchored", b.Concept, b.Var)
		case b.Fallback:
			logging.CompilerWarn("No declared term after quantifier over %q; anchored on first word %q", b.Concept, b.Anchor)
		}
	}
	logging.CompilerDebug("Compiled %q -> %q (depth %d)", assertion, formal, tree.Depth())

	return Result{
		Source:   assertion,
		Formal:   formal,
		Tree:     tree,
		Bindings: q.bindings,
	}
}

// CompileAll compiles each assertion in order.
func (c *Compiler) CompileAll(assertions []string) []Result {
	out := make([]Result, 0, len(assertions))
	for _, a := range assertions {
		out = append(out, c.Compile(a))
	}
	return out
}

// SortLongestFirst returns the distinct non-empty names ordered by
// decreasing length, ties broken alphabetically.
func SortLongestFirst(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		li, lj := len([]rune(out[i])), len([]rune(out[j]))
		if li != lj {
			return li > lj
		}
		return out[i] < out[j]
	})
	return out
}
