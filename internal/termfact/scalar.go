package termfact

import (
	"regexp"
)

var scalarTail = regexp.MustCompile(`^the set of scalar values:\s*(.*)$`)

type scalarExtractor struct{}

func (scalarExtractor) Kind() Kind        { return KindScalar }
func (scalarExtractor) Table() string     { return "scalar_terms" }
func (scalarExtractor) Columns() []string { return []string{"term", "values_list"} }

func (scalarExtractor) Extract(sentence string) Fact {
	term, tail, ok := splitHead(sentence)
	v := ScalarVolume{}
	if !ok {
		logMismatch(KindScalar, sentence)
		return Fact{Volume: v}
	}
	if m := scalarTail.FindStringSubmatch(tail); m != nil {
		v.Values = splitList(m[1])
	} else {
		logMismatch(KindScalar, sentence)
	}
	return Fact{Term: term, Volume: v}
}

func (scalarExtractor) Reconstruct(f Fact) string {
	v, _ := f.Volume.(ScalarVolume)
	return Head(f.Term) + "the set of scalar values: " + joinList(v.Values)
}

func (scalarExtractor) FactToRow(f Fact) Row {
	v, _ := f.Volume.(ScalarVolume)
	return Row{f.Term, joinList(v.Values)}
}

func (scalarExtractor) RowToFact(r Row) Fact {
	return Fact{Term: r.Term(), Volume: ScalarVolume{Values: splitList(column(r, 1))}}
}
