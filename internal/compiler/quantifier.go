package compiler

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	quantifierPhrase = regexp.MustCompile(`for\s+(?:any\s+)?value\s+of\s+concept\s+([\p{L}\p{N}_]+(?:\s+[\p{L}\p{N}_]+)*)`)
	firstWord        = regexp.MustCompile(`(?s)^([\p{L}\p{N}_]+)(.*)$`)
	bindingPattern   = regexp.MustCompile(`\(v\d+: [^)]+\)`)
)

// Binding is one resolved universal quantifier.
type Binding struct {
	Var     string `json:"var"`
	Concept string `json:"concept"`
	// Anchor is the term name the variable was attached to.
	Anchor string `json:"anchor"`
	// Fallback is set when no declared term matched. The first word is then
	// the anchor, or there is no anchor when the remainder does not start
	// with a word.
	Fallback bool `json:"fallback,omitempty"`
}

// quantifierResolver replaces "for any value of concept C, T ..." with
// "(vN: C)T(vN) ..." and records each binding in resolution order.
type quantifierResolver struct {
	terms    []string
	next     int
	bindings []Binding
}

func (q *quantifierResolver) resolve(expr string) string {
	loc := quantifierPhrase.FindStringSubmatchIndex(expr)
	if loc == nil {
		return expr
	}

	concept := strings.TrimSpace(expr[loc[2]:loc[3]])
	q.next++
	v := fmt.Sprintf("v%d", q.next)

	before := expr[:loc[0]]
	after := strings.TrimLeft(expr[loc[1]:], " ,")

	b := Binding{Var: v, Concept: concept}
	var inner string
	if term := q.longestPrefix(after); term != "" {
		b.Anchor = term
		inner = term + "(" + v + ")" + after[len(term):]
	} else if m := firstWord.FindStringSubmatch(after); m != nil {
		b.Anchor, b.Fallback = m[1], true
		inner = m[1] + "(" + v + ")" + m[2]
	} else {
		b.Fallback = true
		inner = after
	}
	q.bindings = append(q.bindings, b)

	return before + "(" + v + ": " + concept + ")" + q.resolve(inner)
}

// longestPrefix returns the longest declared term that prefixes s. Terms are
// kept sorted longest-first, so the first hit wins.
func (q *quantifierResolver) longestPrefix(s string) string {
	for _, t := range q.terms {
		if strings.HasPrefix(s, t) {
			return t
		}
	}
	return ""
}

// hoistBindings moves every "(vN: C)" annotation to the front, in order,
// followed by the annotation-free remainder.
func hoistBindings(expr string) string {
	matches := bindingPattern.FindAllString(expr, -1)
	if len(matches) == 0 {
		return expr
	}
	rest := expr
	for _, m := range matches {
		rest = strings.Replace(rest, m, "", 1)
	}
	return strings.Join(matches, "") + strings.TrimSpace(rest)
}
