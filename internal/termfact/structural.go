package termfact

import (
	"regexp"
)

var structuralTail = regexp.MustCompile(`^finite subsets of structured objects sharing the same structure\.\s*The attributes of these structured objects are (.*)$`)

type structuralExtractor struct{}

func (structuralExtractor) Kind() Kind        { return KindStructural }
func (structuralExtractor) Table() string     { return "structural_terms" }
func (structuralExtractor) Columns() []string { return []string{"term", "attributes_list"} }

func (structuralExtractor) Extract(sentence string) Fact {
	term, tail, ok := splitHead(sentence)
	v := StructuralVolume{}
	if !ok {
		logMismatch(KindStructural, sentence)
		return Fact{Volume: v}
	}
	if m := structuralTail.FindStringSubmatch(tail); m != nil {
		v.Attributes = splitList(m[1])
	} else {
		logMismatch(KindStructural, sentence)
	}
	return Fact{Term: term, Volume: v}
}

func (structuralExtractor) Reconstruct(f Fact) string {
	v, _ := f.Volume.(StructuralVolume)
	return Head(f.Term) + "finite subsets of structured objects sharing the same structure. The attributes of these structured objects are " + joinList(v.Attributes)
}

func (structuralExtractor) FactToRow(f Fact) Row {
	v, _ := f.Volume.(StructuralVolume)
	return Row{f.Term, joinList(v.Attributes)}
}

func (structuralExtractor) RowToFact(r Row) Fact {
	return Fact{Term: r.Term(), Volume: StructuralVolume{Attributes: splitList(column(r, 1))}}
}
