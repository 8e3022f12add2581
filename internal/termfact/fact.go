// Package termfact parses canonical concept-volume sentences into structured facts
// and reconstructs the sentences back from facts.
//
// Every term kind (scalar, dimensional, set, mapping, union, structural, sequence)
// has one Extractor. Extraction never fails: a sentence that does not match the
// kind's template yields a partial Fact, and the caller decides whether that is
// acceptable.
package termfact

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind tags the variant of a Fact.
type Kind string

const (
	KindScalar      Kind = "scalar"
	KindDimensional Kind = "dimensional"
	KindSet         Kind = "set"
	KindMapping     Kind = "mapping"
	KindUnion       Kind = "union"
	KindStructural  Kind = "structural"
	KindSequence    Kind = "sequence"
)

// Kinds lists every kind in canonical order.
var Kinds = []Kind{
	KindScalar,
	KindDimensional,
	KindSet,
	KindMapping,
	KindUnion,
	KindStructural,
	KindSequence,
}

// ErrUnknownKind is returned when a kind tag has no registered extractor.
var ErrUnknownKind = errors.New("unknown term kind")

// ParseKind validates a kind tag.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Volume is the kind-specific clarification payload of a Fact.
// The set of implementations is closed to this package.
type Volume interface {
	volumeKind() Kind
}

// ScalarVolume enumerates literal values.
type ScalarVolume struct {
	Values []string `json:"values,omitempty"`
}

// Sign qualifiers for dimensional terms.
const (
	SignPositive    = "positive"
	SignNegative    = "negative"
	SignNonNegative = "nonnegative"
	SignNonPositive = "nonpositive"
)

// Comparator words used in dimensional bound clauses.
const (
	RelationGreater = "greater"
	RelationLess    = "less"
)

// Infinity placeholders accepted as open bounds.
const (
	NegativeInfinity = "-∞"
	PositiveInfinity = "∞"
)

// Bound is one side of a dimensional range.
type Bound struct {
	Strict   bool   `json:"strict,omitempty"`
	Relation string `json:"relation"`
	Value    string `json:"value"`
}

// DimensionalVolume carries either a sign qualifier or explicit bounds.
type DimensionalVolume struct {
	Sign  string `json:"sign,omitempty"`
	Left  *Bound `json:"left,omitempty"`
	Right *Bound `json:"right,omitempty"`
}

// SetOperation is the composition mode of a set term.
type SetOperation string

const (
	SetReference    SetOperation = "reference"
	SetDifference   SetOperation = "difference"
	SetIntersection SetOperation = "intersection"
	SetUnion        SetOperation = "union"
)

// SetVolume describes the subsets a set term ranges over.
type SetVolume struct {
	NonEmpty  bool         `json:"non_empty,omitempty"`
	Operation SetOperation `json:"operation,omitempty"`
	Set1      string       `json:"set1,omitempty"`
	Set2      string       `json:"set2,omitempty"`
}

// MappingVolume names the domain and codomain of a mapping term.
type MappingVolume struct {
	Domain   string `json:"domain,omitempty"`
	Codomain string `json:"codomain,omitempty"`
}

// UnionVolume lists the united terms in authoring order.
type UnionVolume struct {
	Members []string `json:"members,omitempty"`
}

// StructuralVolume lists attribute names. Each attribute must be a mapping
// term whose domain is the structural term itself; callers enforce that.
type StructuralVolume struct {
	Attributes []string `json:"attributes,omitempty"`
}

// SequenceVolume names the set term the sequence elements belong to.
type SequenceVolume struct {
	ElementSet string `json:"element_set,omitempty"`
}

func (ScalarVolume) volumeKind() Kind      { return KindScalar }
func (DimensionalVolume) volumeKind() Kind { return KindDimensional }
func (SetVolume) volumeKind() Kind         { return KindSet }
func (MappingVolume) volumeKind() Kind     { return KindMapping }
func (UnionVolume) volumeKind() Kind       { return KindUnion }
func (StructuralVolume) volumeKind() Kind  { return KindStructural }
func (SequenceVolume) volumeKind() Kind    { return KindSequence }

// Fact is one authored term.
type Fact struct {
	Term   string
	Volume Volume
}

// Kind returns the variant tag, or "" when the fact carries no payload.
func (f Fact) Kind() Kind {
	if f.Volume == nil {
		return ""
	}
	return f.Volume.volumeKind()
}

// wireFact is the JSON shape exchanged with the authoring surface.
type wireFact struct {
	Term   string          `json:"term"`
	Kind   Kind            `json:"kind"`
	Volume json.RawMessage `json:"volume,omitempty"`
}

// MarshalJSON writes the fact as a kind-tagged record.
func (f Fact) MarshalJSON() ([]byte, error) {
	w := wireFact{Term: f.Term, Kind: f.Kind()}
	if f.Volume != nil {
		raw, err := json.Marshal(f.Volume)
		if err != nil {
			return nil, err
		}
		w.Volume = raw
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads a kind-tagged record.
func (f *Fact) UnmarshalJSON(data []byte) error {
	var w wireFact
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	f.Term = w.Term
	f.Volume = nil
	if w.Kind == "" {
		return nil
	}

	var v Volume
	var err error
	switch w.Kind {
	case KindScalar:
		v, err = decodeVolume[ScalarVolume](w.Volume)
	case KindDimensional:
		v, err = decodeVolume[DimensionalVolume](w.Volume)
	case KindSet:
		v, err = decodeVolume[SetVolume](w.Volume)
	case KindMapping:
		v, err = decodeVolume[MappingVolume](w.Volume)
	case KindUnion:
		v, err = decodeVolume[UnionVolume](w.Volume)
	case KindStructural:
		v, err = decodeVolume[StructuralVolume](w.Volume)
	case KindSequence:
		v, err = decodeVolume[SequenceVolume](w.Volume)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, w.Kind)
	}
	if err != nil {
		return fmt.Errorf("decode %s volume: %w", w.Kind, err)
	}
	f.Volume = v
	return nil
}

func decodeVolume[T Volume](raw json.RawMessage) (Volume, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
