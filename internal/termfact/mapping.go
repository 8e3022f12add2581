package termfact

import (
	"regexp"
	"strings"
)

var (
	mappingTail     = regexp.MustCompile(`^finite mappings\.`)
	mappingDomain   = regexp.MustCompile(`The domain of the mapping is (.+?)\.(?:\s|$)`)
	mappingCodomain = regexp.MustCompile(`The codomain of the mapping is (.+?)\.?$`)
)

type mappingExtractor struct{}

func (mappingExtractor) Kind() Kind        { return KindMapping }
func (mappingExtractor) Table() string     { return "mapping_terms" }
func (mappingExtractor) Columns() []string { return []string{"term", "domain", "codomain"} }

func (mappingExtractor) Extract(sentence string) Fact {
	term, tail, ok := splitHead(sentence)
	v := MappingVolume{}
	if !ok || !mappingTail.MatchString(tail) {
		logMismatch(KindMapping, sentence)
		return Fact{Term: term, Volume: v}
	}
	if m := mappingDomain.FindStringSubmatch(tail); m != nil {
		v.Domain = strings.TrimSpace(m[1])
	}
	if m := mappingCodomain.FindStringSubmatch(tail); m != nil {
		v.Codomain = strings.TrimSpace(m[1])
	}
	return Fact{Term: term, Volume: v}
}

func (mappingExtractor) Reconstruct(f Fact) string {
	v, _ := f.Volume.(MappingVolume)
	s := Head(f.Term) + "finite mappings."
	if v.Domain != "" {
		s += " The domain of the mapping is " + v.Domain + "."
	}
	if v.Codomain != "" {
		s += " The codomain of the mapping is " + v.Codomain + "."
	}
	return s
}

func (mappingExtractor) FactToRow(f Fact) Row {
	v, _ := f.Volume.(MappingVolume)
	return Row{f.Term, v.Domain, v.Codomain}
}

func (mappingExtractor) RowToFact(r Row) Fact {
	return Fact{Term: r.Term(), Volume: MappingVolume{Domain: column(r, 1), Codomain: column(r, 2)}}
}
