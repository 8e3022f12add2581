package termfact

import (
	"regexp"
	"strings"
)

var (
	dimensionalSignTail   = regexp.MustCompile(`^(positive|negative|nonnegative|nonpositive) dimensional values$`)
	dimensionalBoundsTail = regexp.MustCompile(`^dimensional values(?:, whose elements are (.+?)(?:, but (.+))?)?$`)
	boundClause           = regexp.MustCompile(`^(?:(strictly) (greater|less) than|(greater|less) than or equal to) (.+)$`)
)

type dimensionalExtractor struct{}

func (dimensionalExtractor) Kind() Kind    { return KindDimensional }
func (dimensionalExtractor) Table() string { return "dimensional_terms" }
func (dimensionalExtractor) Columns() []string {
	return []string{"term", "sign", "left_clause", "right_clause"}
}

func (dimensionalExtractor) Extract(sentence string) Fact {
	term, tail, ok := splitHead(sentence)
	v := DimensionalVolume{}
	if !ok {
		logMismatch(KindDimensional, sentence)
		return Fact{Volume: v}
	}
	// Authors paste U+2212 from typeset material.
	tail = strings.ReplaceAll(tail, "−", "-")

	if m := dimensionalSignTail.FindStringSubmatch(tail); m != nil {
		v.Sign = m[1]
		return Fact{Term: term, Volume: v}
	}
	m := dimensionalBoundsTail.FindStringSubmatch(tail)
	if m == nil {
		logMismatch(KindDimensional, sentence)
		return Fact{Term: term, Volume: v}
	}
	v.Left = parseBound(m[1])
	v.Right = parseBound(m[2])
	return Fact{Term: term, Volume: v}
}

func (dimensionalExtractor) Reconstruct(f Fact) string {
	v, _ := f.Volume.(DimensionalVolume)
	if v.Sign != "" {
		return Head(f.Term) + v.Sign + " dimensional values"
	}
	var b strings.Builder
	b.WriteString(Head(f.Term))
	b.WriteString("dimensional values")
	if v.Left != nil {
		b.WriteString(", whose elements are ")
		b.WriteString(formatBound(v.Left))
		if v.Right != nil {
			b.WriteString(", but ")
			b.WriteString(formatBound(v.Right))
		}
	}
	return b.String()
}

func (dimensionalExtractor) FactToRow(f Fact) Row {
	v, _ := f.Volume.(DimensionalVolume)
	return Row{f.Term, v.Sign, formatBound(v.Left), formatBound(v.Right)}
}

func (dimensionalExtractor) RowToFact(r Row) Fact {
	return Fact{Term: r.Term(), Volume: DimensionalVolume{
		Sign:  column(r, 1),
		Left:  parseBound(column(r, 2)),
		Right: parseBound(column(r, 3)),
	}}
}

// parseBound reads one bound clause; an empty or malformed clause yields nil.
func parseBound(clause string) *Bound {
	clause = strings.TrimSpace(clause)
	if clause == "" {
		return nil
	}
	m := boundClause.FindStringSubmatch(clause)
	if m == nil {
		return nil
	}
	if m[1] != "" {
		return &Bound{Strict: true, Relation: m[2], Value: strings.TrimSpace(m[4])}
	}
	return &Bound{Relation: m[3], Value: strings.TrimSpace(m[4])}
}

func formatBound(b *Bound) string {
	if b == nil {
		return ""
	}
	if b.Strict {
		return "strictly " + b.Relation + " than " + b.Value
	}
	return b.Relation + " than or equal to " + b.Value
}
