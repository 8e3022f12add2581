package termfact

import (
	"regexp"
)

var unionTail = regexp.MustCompile(`^values belonging to the union of the volumes of concepts named by the terms (.*?)\.?$`)

type unionExtractor struct{}

func (unionExtractor) Kind() Kind        { return KindUnion }
func (unionExtractor) Table() string     { return "union_terms" }
func (unionExtractor) Columns() []string { return []string{"term", "members_list"} }

func (unionExtractor) Extract(sentence string) Fact {
	term, tail, ok := splitHead(sentence)
	v := UnionVolume{}
	if !ok {
		logMismatch(KindUnion, sentence)
		return Fact{Volume: v}
	}
	if m := unionTail.FindStringSubmatch(tail); m != nil {
		v.Members = splitList(m[1])
	} else {
		logMismatch(KindUnion, sentence)
	}
	return Fact{Term: term, Volume: v}
}

func (unionExtractor) Reconstruct(f Fact) string {
	v, _ := f.Volume.(UnionVolume)
	return Head(f.Term) + "values belonging to the union of the volumes of concepts named by the terms " + joinList(v.Members) + "."
}

func (unionExtractor) FactToRow(f Fact) Row {
	v, _ := f.Volume.(UnionVolume)
	return Row{f.Term, joinList(v.Members)}
}

func (unionExtractor) RowToFact(r Row) Fact {
	return Fact{Term: r.Term(), Volume: UnionVolume{Members: splitList(column(r, 1))}}
}
