package termfact

import (
	"regexp"
)

var (
	setTail         = regexp.MustCompile(`^finite (non-empty )?subsets of (.+)$`)
	setIntersection = regexp.MustCompile(`^the intersection of the set of (.+?) and the set of (.+)$`)
	setUnion        = regexp.MustCompile(`^the union of the set of (.+?) and the set of (.+)$`)
	setDifference   = regexp.MustCompile(`^the set of (.+?) excluding subsets containing elements of the set of (.+)$`)
	setReference    = regexp.MustCompile(`^the set of (.+)$`)
)

const nonEmptyQualifier = "non-empty"

type setExtractor struct{}

func (setExtractor) Kind() Kind    { return KindSet }
func (setExtractor) Table() string { return "set_terms" }
func (setExtractor) Columns() []string {
	return []string{"term", "subset_type", "set1", "operation", "set2"}
}

func (setExtractor) Extract(sentence string) Fact {
	term, tail, ok := splitHead(sentence)
	v := SetVolume{}
	if !ok {
		logMismatch(KindSet, sentence)
		return Fact{Volume: v}
	}
	m := setTail.FindStringSubmatch(tail)
	if m == nil {
		logMismatch(KindSet, sentence)
		return Fact{Term: term, Volume: v}
	}
	v.NonEmpty = m[1] != ""
	body := m[2]

	// Two-operand forms first: the reference pattern would swallow them.
	switch {
	case setIntersection.MatchString(body):
		s := setIntersection.FindStringSubmatch(body)
		v.Operation, v.Set1, v.Set2 = SetIntersection, s[1], s[2]
	case setUnion.MatchString(body):
		s := setUnion.FindStringSubmatch(body)
		v.Operation, v.Set1, v.Set2 = SetUnion, s[1], s[2]
	case setDifference.MatchString(body):
		s := setDifference.FindStringSubmatch(body)
		v.Operation, v.Set1, v.Set2 = SetDifference, s[1], s[2]
	case setReference.MatchString(body):
		s := setReference.FindStringSubmatch(body)
		v.Operation, v.Set1 = SetReference, s[1]
	default:
		logMismatch(KindSet, sentence)
	}
	return Fact{Term: term, Volume: v}
}

func (setExtractor) Reconstruct(f Fact) string {
	v, _ := f.Volume.(SetVolume)
	s := Head(f.Term) + "finite "
	if v.NonEmpty {
		s += nonEmptyQualifier + " "
	}
	s += "subsets of "
	switch v.Operation {
	case SetIntersection:
		s += "the intersection of the set of " + v.Set1 + " and the set of " + v.Set2
	case SetUnion:
		s += "the union of the set of " + v.Set1 + " and the set of " + v.Set2
	case SetDifference:
		s += "the set of " + v.Set1 + " excluding subsets containing elements of the set of " + v.Set2
	default:
		s += "the set of " + v.Set1
	}
	return s
}

func (setExtractor) FactToRow(f Fact) Row {
	v, _ := f.Volume.(SetVolume)
	subsetType := ""
	if v.NonEmpty {
		subsetType = nonEmptyQualifier
	}
	return Row{f.Term, subsetType, v.Set1, string(v.Operation), v.Set2}
}

func (setExtractor) RowToFact(r Row) Fact {
	return Fact{Term: r.Term(), Volume: SetVolume{
		NonEmpty:  column(r, 1) == nonEmptyQualifier,
		Set1:      column(r, 2),
		Operation: SetOperation(column(r, 3)),
		Set2:      column(r, 4),
	}}
}
