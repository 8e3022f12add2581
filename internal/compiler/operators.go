package compiler

import (
	"regexp"
	"sort"
	"strings"
)

// rewrite is one regexp substitution of a bracketed two-operand phrase.
type rewrite struct {
	pattern *regexp.Regexp
	repl    string
}

// Operand slots stop at the first ')' so only innermost, non-nested phrases match.
var setOperations = []rewrite{
	{regexp.MustCompile(`\(intersection of\s+([^)]+?)\s+and\s+([^)]+?)\)`), "($1 ∩ $2)"},
	{regexp.MustCompile(`\(union of\s+([^)]+?)\s+and\s+([^)]+?)\)`), "($1 ∪ $2)"},
	{regexp.MustCompile(`\(difference of\s+([^)]+?)\s+and\s+([^)]+?)\)`), "($1 ∖ $2)"},
}

var arithmeticOperations = []rewrite{
	{regexp.MustCompile(`\(raising\s+([^)]+?)\s+to the power\s+([^)]+?)\)`), "($1↑$2)"},
	{regexp.MustCompile(`\(division of\s+([^)]+?)\s+by\s+([^)]+?)\)`), "($1 / $2)"},
	{regexp.MustCompile(`\(product of\s+([^)]+?)\s+and\s+([^)]+?)\)`), "($1 ⋅ $2)"},
	{regexp.MustCompile(`\(sum of\s+([^)]+?)\s+and\s+([^)]+?)\)`), "($1 + $2)"},
	{regexp.MustCompile(`\(subtraction of\s+([^)]+?)\s+from\s+([^)]+?)\)`), "($2 - $1)"},
}

func applyRewrites(expr string, rules []rewrite) string {
	for _, r := range rules {
		expr = r.pattern.ReplaceAllString(expr, r.repl)
	}
	return expr
}

// phrase maps a literal natural-language phrase to its symbol.
type phrase struct {
	text   string
	symbol string
}

var relationalPhrases = longestFirst([]phrase{
	{"is not a subset of", "⊄"},
	{"is a subset of or equal to", "⊆"},
	{"is a subset of", "⊂"},
	{"does not belong to", "∉"},
	{"belongs to", "∈"},
	{"is not equal to", "≠"},
	{"does not equal", "≠"},
	{"is greater than or equal to", "≥"},
	{"is less than or equal to", "≤"},
	{"is strictly greater than", ">"},
	{"is strictly less than", "<"},
	{"is greater than", ">"},
	{"is less than", "<"},
	{"is equal to", "="},
	{"equals", "="},
})

// The "if" connective is dropped; its meaning is carried by "then".
var logicalPhrases = longestFirst([]phrase{
	{" if and only if ", " ⇔ "},
	{", then ", " ⇒ "},
	{" then ", " ⇒ "},
	{" if ", " "},
	{" and ", " ∧ "},
	{" or ", " ∨ "},
})

// longestFirst orders phrases so no shorter phrase consumes part of a longer one.
func longestFirst(phrases []phrase) []phrase {
	out := append([]phrase(nil), phrases...)
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].text) > len(out[j].text)
	})
	return out
}

func applyPhrases(expr string, phrases []phrase) string {
	for _, p := range phrases {
		expr = strings.ReplaceAll(expr, p.text, p.symbol)
	}
	return expr
}

var (
	negation     = regexp.MustCompile(`\bnot\s+([\p{L}\p{N}_])`)
	leadingIf    = regexp.MustCompile(`\bif\s+`)
	multiSpace   = regexp.MustCompile(` {2,}`)
	emptySetText = "the empty set"
)

const EmptySet = "∅"

func applyNegation(expr string) string {
	return negation.ReplaceAllString(expr, "¬$1")
}

// normalize tidies spacing around parentheses, collapses runs of spaces and
// drops any "if" left at the start of a clause.
func normalize(expr string) string {
	expr = strings.ReplaceAll(expr, "( ", "(")
	expr = strings.ReplaceAll(expr, " )", ")")
	expr = multiSpace.ReplaceAllString(expr, " ")
	expr = leadingIf.ReplaceAllString(expr, "")
	return strings.TrimSpace(expr)
}

func replaceEmptySet(expr string) string {
	return strings.ReplaceAll(expr, emptySetText, EmptySet)
}
