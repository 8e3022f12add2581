package definitions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"ontomodel/internal/mangle"
	"ontomodel/internal/ontology"
	"ontomodel/internal/store"
	"ontomodel/internal/termfact"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const geometryYAML = `domain: geometry
terms:
  - kind: dimensional
    sentence: "Concept radius volume consists of positive dimensional values"
  - sentence: "Concept ids volume consists of finite subsets of the set of integers"
ontology:
  - "(for any value of concept radius, radius is greater than 0)"
knowledge: []
term_lists:
  knowledge: [diameter]
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geometry.yaml")
	writeFile(t, path, geometryYAML)

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "geometry", f.Domain)
	assert.Equal(t, path, f.Path)
	require.Len(t, f.Terms, 2)
	assert.Equal(t, termfact.KindDimensional, f.Terms[0].Kind)
	assert.Empty(t, f.Terms[1].Kind)
	assert.Equal(t, []string{"diameter"}, f.TermLists.Knowledge)

	in := f.BuildInput()
	assert.Equal(t, "geometry", in.Domain)
	assert.Equal(t, []string{"diameter"}, in.TermLists[ontology.Knowledge])
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing domain", "terms: []\n"},
		{"empty sentence", "domain: d\nterms:\n  - kind: scalar\n"},
		{"bad yaml", "domain: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestGlob(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b", "deep", "two.yaml"), "domain: two\n")
	writeFile(t, filepath.Join(dir, "a", "one.yaml"), "domain: one\n")
	writeFile(t, filepath.Join(dir, "a", "notes.txt"), "ignored")

	files, err := Glob(filepath.Join(dir, "**", "*.yaml"))
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "one", files[0].Domain)
	assert.Equal(t, "two", files[1].Domain)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "d.yaml")
	f := &File{Domain: "d", Terms: []ontology.Sentence{{Text: "Concept t volume consists of dimensional values"}}}
	require.NoError(t, Save(path, f))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, f.Terms, got.Terms)
}

func TestSync(t *testing.T) {
	dir := t.TempDir()
	s, err := store.Open(store.Options{Driver: store.DriverModernc, Path: filepath.Join(dir, "terms.db")})
	require.NoError(t, err)
	defer s.Close()

	f, err := Parse([]byte(geometryYAML))
	require.NoError(t, err)

	svc := ontology.NewService(s, ontology.NewValidator(mangle.DefaultConfig()))
	b := ontology.NewBuilder(s, filepath.Join(dir, "model"), filepath.Join(dir, "model"))
	report, built, err := Sync(svc, b, f)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Inserted)
	assert.Equal(t, []string{"Sort radius: R(0, ∞)", "Sort ids: {}I"}, built.Model.Sorts)
	assert.Equal(t, []string{"(v1: radius)(radius(v1) > 0)"}, built.Model.OntologyAgreements)

	listed, err := ontology.ReadTermList(b.TermListPath("geometry", ontology.Knowledge))
	require.NoError(t, err)
	assert.Equal(t, []string{"diameter"}, listed)
	assert.NoFileExists(t, b.TermListPath("geometry", ontology.Ontology))
}
