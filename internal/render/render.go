// Package render turns term facts into sort declaration lines.
//
// Each kind rewrites its own canonical sentence tail through a fixed, ordered
// list of literal replacements, so a sort line is always a deterministic
// function of the stored fact:
//
//	Concept radius volume consists of positive dimensional values
//	Sort radius: R(0, ∞)
package render

import (
	"fmt"
	"strings"

	"ontomodel/internal/compiler"
	"ontomodel/internal/logging"
	"ontomodel/internal/termfact"
)

// Symbols for the built-in sets.
const (
	SymbolNames    = "N"
	SymbolReals    = "R"
	SymbolIntegers = "I"
)

const structuralPlaceholder = "{}N"

var builtinSymbols = map[string]string{
	termfact.BuiltinNames:    SymbolNames,
	termfact.BuiltinReals:    SymbolReals,
	termfact.BuiltinIntegers: SymbolIntegers,
}

// symbol maps a built-in set reference to its letter and leaves any other
// name untouched.
func symbol(name string) string {
	if s, ok := builtinSymbols[strings.TrimPrefix(name, "the set of ")]; ok {
		return s
	}
	return name
}

type replacement struct {
	old, new string
}

func replaceAll(s string, rs []replacement) string {
	for _, r := range rs {
		s = strings.ReplaceAll(s, r.old, r.new)
	}
	return s
}

// Sort renders the sort declaration line for one fact.
func Sort(f termfact.Fact) (string, error) {
	var tail string
	switch v := f.Volume.(type) {
	case termfact.ScalarVolume:
		tail = scalar(f)
	case termfact.DimensionalVolume:
		tail = dimensional(f.Term, v)
	case termfact.SetVolume:
		tail = set(f.Term, v)
	case termfact.MappingVolume:
		tail = mapping(f.Term, v)
	case termfact.UnionVolume:
		tail = union(f)
	case termfact.StructuralVolume:
		tail = structural(f)
	case termfact.SequenceVolume:
		tail = sequence(f.Term, v)
	default:
		return "", fmt.Errorf("render %q: %w", f.Term, termfact.ErrUnknownKind)
	}
	line := "Sort " + f.Term + ": " + tail
	logging.RenderDebug("%s %q -> %q", f.Kind(), f.Term, line)
	return line, nil
}

// Sorts renders every fact in order.
func Sorts(facts []termfact.Fact) ([]string, error) {
	lines := make([]string, 0, len(facts))
	for _, f := range facts {
		line, err := Sort(f)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// sentenceTail reconstructs f and drops the shared "Concept T volume consists of " head.
func sentenceTail(f termfact.Fact) string {
	sentence, err := termfact.Reconstruct(f)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(sentence, termfact.Head(f.Term))
}

func scalar(f termfact.Fact) string {
	return replaceAll(sentenceTail(f), []replacement{
		{"the set of scalar values: ", "{"},
		{"  ", " "},
	}) + "}"
}

var signRanges = []replacement{
	{"nonpositive dimensional values", "R(-∞, 0]"},
	{"nonnegative dimensional values", "R[0, ∞)"},
	{"negative dimensional values", "R(-∞, 0)"},
	{"positive dimensional values", "R(0, ∞)"},
}

var boundClauses = []replacement{
	{"dimensional values, whose elements are strictly greater than ", "R("},
	{"dimensional values, whose elements are greater than or equal to ", "R["},
	{"dimensional values, whose elements are strictly less than ", "R(-∞, "},
	{"dimensional values, whose elements are less than or equal to ", "R(-∞, "},
	{", but strictly less than ", ", "},
	{", but less than or equal to ", ", "},
	{", but strictly greater than ", ", "},
	{", but greater than or equal to ", ", "},
	{"R[" + termfact.NegativeInfinity, "R(" + termfact.NegativeInfinity},
	{"dimensional values", "R"},
}

func dimensional(term string, v termfact.DimensionalVolume) string {
	if v.Sign != "" {
		return replaceAll(sentenceTail(termfact.Fact{Term: term, Volume: termfact.DimensionalVolume{Sign: v.Sign}}), signRanges)
	}
	// An upper bound written first reads as the right end of the interval.
	if v.Left != nil && v.Right != nil && v.Left.Relation == termfact.RelationLess && v.Right.Relation == termfact.RelationGreater {
		v.Left, v.Right = v.Right, v.Left
	}
	out := replaceAll(sentenceTail(termfact.Fact{Term: term, Volume: v}), boundClauses)

	last := v.Right
	if last == nil {
		last = v.Left
	}
	switch {
	case last == nil:
		return out
	case last.Relation == termfact.RelationGreater:
		return out + ", " + termfact.PositiveInfinity + ")"
	case last.Strict || last.Value == termfact.PositiveInfinity:
		return out + ")"
	default:
		return out + "]"
	}
}

func set(term string, v termfact.SetVolume) string {
	v.Set1, v.Set2 = symbol(v.Set1), symbol(v.Set2)
	out := replaceAll(sentenceTail(termfact.Fact{Term: term, Volume: v}), []replacement{
		{"finite non-empty subsets of ", "{}"},
		{"finite subsets of ", "{}"},
	})

	switch v.Operation {
	case termfact.SetDifference:
		out = replaceAll(out, []replacement{
			{" excluding subsets containing elements of the set of ", ` \ `},
			{"{}the set of ", "{}("},
		}) + ")"
	case termfact.SetIntersection:
		out = replaceAll(out, []replacement{
			{"the intersection of the set of ", "("},
			{" and the set of ", " ∩ "},
		}) + ")"
	case termfact.SetUnion:
		out = replaceAll(out, []replacement{
			{"the union of the set of ", "("},
			{" and the set of ", " ∪ "},
		}) + ")"
	default:
		out = strings.Replace(out, "{}the set of ", "{}", 1)
	}

	if v.NonEmpty {
		out += ` \ ` + compiler.EmptySet
	}
	return out
}

func mapping(term string, v termfact.MappingVolume) string {
	v.Domain, v.Codomain = symbol(v.Domain), symbol(v.Codomain)
	out := replaceAll(sentenceTail(termfact.Fact{Term: term, Volume: v}), []replacement{
		{"finite mappings. The domain of the mapping is ", "("},
		{"finite mappings.", "("},
		{". The codomain of the mapping is ", " → "},
		{" The codomain of the mapping is ", " → "},
	})
	return strings.TrimSuffix(out, ".") + ")"
}

func union(f termfact.Fact) string {
	out := replaceAll(sentenceTail(f), []replacement{
		{"values belonging to the union of the volumes of concepts named by the terms ", ""},
		{", ", " ∪ "},
	})
	return strings.TrimSuffix(out, ".")
}

// structural renders a fixed placeholder; attribute names are dropped.
func structural(f termfact.Fact) string {
	out := replaceAll(sentenceTail(f), []replacement{
		{"finite subsets of structured objects sharing the same structure. The attributes of these structured objects are ", structuralPlaceholder},
	})
	if i := strings.Index(out, structuralPlaceholder); i >= 0 {
		out = out[:i+len(structuralPlaceholder)]
	}
	return out
}

func sequence(term string, v termfact.SequenceVolume) string {
	v.ElementSet = symbol(v.ElementSet)
	return replaceAll(sentenceTail(termfact.Fact{Term: term, Volume: v}), []replacement{
		{"an infinite set of finite sequences, the elements of each sequence belonging to the finite set ", "seq "},
	})
}
