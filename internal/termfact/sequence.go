package termfact

import (
	"regexp"
	"strings"
)

var sequenceTail = regexp.MustCompile(`^an infinite set of finite sequences, the elements of each sequence belonging to the finite set (.*)$`)

type sequenceExtractor struct{}

func (sequenceExtractor) Kind() Kind        { return KindSequence }
func (sequenceExtractor) Table() string     { return "sequence_terms" }
func (sequenceExtractor) Columns() []string { return []string{"term", "element_set"} }

func (sequenceExtractor) Extract(sentence string) Fact {
	term, tail, ok := splitHead(sentence)
	v := SequenceVolume{}
	if !ok {
		logMismatch(KindSequence, sentence)
		return Fact{Volume: v}
	}
	if m := sequenceTail.FindStringSubmatch(tail); m != nil {
		v.ElementSet = strings.TrimSpace(m[1])
	} else {
		logMismatch(KindSequence, sentence)
	}
	return Fact{Term: term, Volume: v}
}

func (sequenceExtractor) Reconstruct(f Fact) string {
	v, _ := f.Volume.(SequenceVolume)
	return Head(f.Term) + "an infinite set of finite sequences, the elements of each sequence belonging to the finite set " + v.ElementSet
}

func (sequenceExtractor) FactToRow(f Fact) Row {
	v, _ := f.Volume.(SequenceVolume)
	return Row{f.Term, v.ElementSet}
}

func (sequenceExtractor) RowToFact(r Row) Fact {
	return Fact{Term: r.Term(), Volume: SequenceVolume{ElementSet: column(r, 1)}}
}
