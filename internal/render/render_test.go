package render

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ontomodel/internal/termfact"
)

func TestSortFromSentence(t *testing.T) {
	tests := []struct {
		name     string
		sentence string
		want     string
	}{
		{"scalar", "Concept X volume consists of the set of scalar values: 1, 2, 3", "Sort X: {1, 2, 3}"},
		{"positive", "Concept radius volume consists of positive dimensional values", "Sort radius: R(0, ∞)"},
		{"negative", "Concept loss volume consists of negative dimensional values", "Sort loss: R(-∞, 0)"},
		{"nonnegative", "Concept count volume consists of nonnegative dimensional values", "Sort count: R[0, ∞)"},
		{"nonpositive", "Concept debt volume consists of nonpositive dimensional values", "Sort debt: R(-∞, 0]"},
		{"lower bound only", "Concept mass volume consists of dimensional values, whose elements are greater than or equal to 0", "Sort mass: R[0, ∞)"},
		{"upper bound only", "Concept h volume consists of dimensional values, whose elements are less than or equal to 5", "Sort h: R(-∞, 5]"},
		{"open infinite lower", "Concept angle volume consists of dimensional values, whose elements are strictly greater than -∞, but less than or equal to 360", "Sort angle: R(-∞, 360]"},
		{"term bound", "Concept inner radius volume consists of dimensional values, whose elements are strictly greater than 0, but strictly less than outer radius", "Sort inner radius: R(0, outer radius)"},
		{"closed infinite upper", "Concept w volume consists of dimensional values, whose elements are greater than or equal to 0, but less than or equal to ∞", "Sort w: R[0, ∞)"},
		{"unbounded", "Concept t volume consists of dimensional values", "Sort t: R"},
		{"set of integers", "Concept ids volume consists of finite subsets of the set of integers", "Sort ids: {}I"},
		{"non-empty names", "Concept tags volume consists of finite non-empty subsets of the set of names", `Sort tags: {}N \ ∅`},
		{"difference", "Concept odd volume consists of finite subsets of the set of integers excluding subsets containing elements of the set of even", `Sort odd: {}(I \ even)`},
		{"intersection", "Concept both volume consists of finite subsets of the intersection of the set of red things and the set of round things", "Sort both: {}(red things ∩ round things)"},
		{"union set", "Concept either volume consists of finite non-empty subsets of the union of the set of red things and the set of round things", `Sort either: {}(red things ∪ round things) \ ∅`},
		{"mapping", "Concept width volume consists of finite mappings. The domain of the mapping is box. The codomain of the mapping is the set of real numbers.", "Sort width: (box → R)"},
		{"union", "Concept shape volume consists of values belonging to the union of the volumes of concepts named by the terms circle, square, triangle.", "Sort shape: circle ∪ square ∪ triangle"},
		{"structural", "Concept box volume consists of finite subsets of structured objects sharing the same structure. The attributes of these structured objects are width, height", "Sort box: {}N"},
		{"sequence", "Concept path volume consists of an infinite set of finite sequences, the elements of each sequence belonging to the finite set points", "Sort path: seq points"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := termfact.Extract("", tt.sentence)
			require.NoError(t, err)
			got, err := Sort(f)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSortUpperBoundWrittenFirst(t *testing.T) {
	f := termfact.Fact{Term: "p", Volume: termfact.DimensionalVolume{
		Left:  &termfact.Bound{Relation: termfact.RelationLess, Value: "10"},
		Right: &termfact.Bound{Strict: true, Relation: termfact.RelationGreater, Value: "0"},
	}}
	got, err := Sort(f)
	require.NoError(t, err)
	assert.Equal(t, "Sort p: R(0, 10]", got)
}

func TestSortIsDeterministic(t *testing.T) {
	f := termfact.Fact{Term: "shape", Volume: termfact.UnionVolume{Members: []string{"a", "b"}}}
	first, err := Sort(f)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Sort(f)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSortUnknownKind(t *testing.T) {
	_, err := Sort(termfact.Fact{Term: "x"})
	assert.True(t, errors.Is(err, termfact.ErrUnknownKind))
}

func TestSorts(t *testing.T) {
	facts := []termfact.Fact{
		{Term: "a", Volume: termfact.ScalarVolume{Values: []string{"x"}}},
		{Term: "s", Volume: termfact.SequenceVolume{ElementSet: "integers"}},
	}
	lines, err := Sorts(facts)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sort a: {x}", "Sort s: seq I"}, lines)

	_, err = Sorts(append(facts, termfact.Fact{Term: "bad"}))
	assert.Error(t, err)
}
