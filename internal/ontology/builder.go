package ontology

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"

	"ontomodel/internal/compiler"
	"ontomodel/internal/logging"
	"ontomodel/internal/render"
	"ontomodel/internal/store"
)

// AssertionType names one of the two authored formula lists.
type AssertionType string

const (
	Ontology  AssertionType = "ontology"
	Knowledge AssertionType = "knowledge"
)

// slowBuild is the build duration above which a warning is logged.
const slowBuild = 2 * time.Second

// Model file keys.
const (
	keySorts     = "sorts"
	keyOntology  = "ontology_agreements"
	keyKnowledge = "knowledge"
)

// Model is the derived per-domain document.
type Model struct {
	Sorts              []string `json:"sorts"`
	OntologyAgreements []string `json:"ontology_agreements"`
	Knowledge          []string `json:"knowledge"`
}

// BuildInput is the authored material of one domain.
type BuildInput struct {
	Domain    string
	Ontology  []string
	Knowledge []string
	// TermLists adds names per assertion type on top of the files found in
	// the term-list directory.
	TermLists map[AssertionType][]string
}

// BuildResult describes one model build.
type BuildResult struct {
	RunID     string
	Model     Model
	Ontology  []compiler.Result
	Knowledge []compiler.Result
	ModelPath string
	TreePaths []string
}

// Builder renders and compiles a domain into model artifacts.
type Builder struct {
	store       *store.TermStore
	outputDir   string
	termListDir string
}

// NewBuilder returns a builder writing under outputDir and reading term-name
// lists from termListDir.
func NewBuilder(s *store.TermStore, outputDir, termListDir string) *Builder {
	return &Builder{store: s, outputDir: outputDir, termListDir: termListDir}
}

// ModelFile returns <outputDir>/<domain>_model.json.
func ModelFile(outputDir, domain string) string {
	return filepath.Join(outputDir, domain+"_model.json")
}

// ModelPath returns the model file of domain under the builder output dir.
func (b *Builder) ModelPath(domain string) string {
	return ModelFile(b.outputDir, domain)
}

// TermListFile returns <termListDir>/<domain>_<type>_list_terms.json.
func TermListFile(termListDir, domain string, t AssertionType) string {
	return filepath.Join(termListDir, fmt.Sprintf("%s_%s_list_terms.json", domain, t))
}

// TermListPath returns the term-name list of domain and t under the builder
// term-list dir.
func (b *Builder) TermListPath(domain string, t AssertionType) string {
	return TermListFile(b.termListDir, domain, t)
}

// TreePath returns the expression tree file of the n-th (1-based) assertion.
func (b *Builder) TreePath(domain string, t AssertionType, n int) string {
	return filepath.Join(b.outputDir, treePrefix(domain, t)+strconv.Itoa(n)+".json")
}

func treePrefix(domain string, t AssertionType) string {
	return fmt.Sprintf("%s_%s_expression_tree_", domain, t)
}

// removeTrees deletes the tree files of a previous build so a shorter list
// leaves no higher-numbered files behind.
func (b *Builder) removeTrees(domain string, t AssertionType) error {
	prefix := treePrefix(domain, t)
	matches, err := doublestar.Glob(os.DirFS(b.outputDir), globEscape(prefix)+"*.json")
	if err != nil {
		return fmt.Errorf("list tree files: %w", err)
	}
	for _, m := range matches {
		n := strings.TrimSuffix(strings.TrimPrefix(m, prefix), ".json")
		if _, err := strconv.Atoi(n); err != nil {
			continue
		}
		if err := os.Remove(filepath.Join(b.outputDir, m)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove stale tree %s: %w", m, err)
		}
	}
	if len(matches) > 0 {
		logging.Get(logging.CategoryModel).Debug("Removed %d %s tree files of %s", len(matches), t, domain)
	}
	return nil
}

// globEscape quotes glob metacharacters in a free-text domain name.
func globEscape(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`\*?[]{}`, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Build renders every stored term of the domain in authoring order, compiles
// both assertion lists and writes the model file plus one tree file per
// compiled assertion.
func (b *Builder) Build(in BuildInput) (result *BuildResult, err error) {
	if in.Domain == "" {
		return nil, errors.New("domain name required")
	}
	runID := uuid.NewString()
	rl := logging.WithRequestID(logging.CategoryModel, runID).WithField("domain", in.Domain)
	timer := logging.StartTimer(logging.CategoryModel, "Build "+in.Domain)
	defer func() {
		elapsed := timer.StopWithThreshold(slowBuild)
		res := Model{}
		if result != nil {
			res = result.Model
		}
		if err != nil {
			rl.Error("Build failed: %v", err)
		}
		logging.AuditWithRequest(runID, logging.CategoryModel).ModelBuilt(in.Domain,
			len(res.Sorts), len(res.OntologyAgreements), len(res.Knowledge),
			elapsed.Milliseconds(), err)
	}()

	facts, err := b.store.LoadFacts(in.Domain)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", in.Domain, err)
	}
	sorts, err := render.Sorts(facts)
	if err != nil {
		return nil, err
	}
	rl.Debug("Rendered %d sorts", len(sorts))

	names := make([]string, 0, len(facts))
	for _, f := range facts {
		names = append(names, f.Term)
	}
	for _, t := range []AssertionType{Ontology, Knowledge} {
		listed, err := ReadTermList(b.TermListPath(in.Domain, t))
		if err != nil {
			return nil, err
		}
		names = append(names, listed...)
		names = append(names, in.TermLists[t]...)
	}
	c := compiler.New(names)

	result = &BuildResult{
		RunID:     runID,
		ModelPath: b.ModelPath(in.Domain),
		Ontology:  c.CompileAll(splitAll(in.Ontology)),
		Knowledge: c.CompileAll(splitAll(in.Knowledge)),
	}
	result.Model = Model{
		Sorts:              sorts,
		OntologyAgreements: formals(result.Ontology),
		Knowledge:          formals(result.Knowledge),
	}

	if err := os.MkdirAll(b.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	if err := writeModel(result.ModelPath, result.Model); err != nil {
		return nil, err
	}
	for _, group := range []struct {
		t       AssertionType
		results []compiler.Result
	}{{Ontology, result.Ontology}, {Knowledge, result.Knowledge}} {
		if err := b.removeTrees(in.Domain, group.t); err != nil {
			return nil, err
		}
		for i, r := range group.results {
			path := b.TreePath(in.Domain, group.t, i+1)
			if err := writeJSON(path, r.Tree); err != nil {
				return nil, err
			}
			result.TreePaths = append(result.TreePaths, path)
		}
	}

	rl.Info("Built model: %d sorts, %d ontology agreements, %d knowledge formulas",
		len(result.Model.Sorts), len(result.Model.OntologyAgreements), len(result.Model.Knowledge))
	return result, nil
}

func splitAll(lines []string) []string {
	var out []string
	for _, l := range lines {
		out = append(out, compiler.SplitAssertions(l)...)
	}
	return out
}

func formals(results []compiler.Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Formal
	}
	return out
}

// ReadTermList reads a JSON string array. A missing file is an empty list.
func ReadTermList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read term list %s: %w", path, err)
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("parse term list %s: %w", path, err)
	}
	return names, nil
}

// WriteTermList writes names as a JSON string array.
func WriteTermList(path string, names []string) error {
	if names == nil {
		names = []string{}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return writeJSON(path, names)
}

// writeModel replaces the three model lists and keeps any other keys already
// present in the file.
func writeModel(path string, m Model) error {
	doc := map[string]json.RawMessage{}
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse existing model %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read existing model %s: %w", path, err)
	}

	for key, list := range map[string][]string{
		keySorts:     m.Sorts,
		keyOntology:  m.OntologyAgreements,
		keyKnowledge: m.Knowledge,
	} {
		if list == nil {
			list = []string{}
		}
		raw, err := marshalIndent(list)
		if err != nil {
			return err
		}
		doc[key] = raw
	}
	return writeJSON(path, doc)
}

// ReadModel loads a model file written by Build.
func ReadModel(path string) (Model, error) {
	var m Model
	data, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parse model %s: %w", path, err)
	}
	return m, nil
}

func writeJSON(path string, v any) error {
	data, err := marshalIndent(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// marshalIndent encodes without HTML escaping so formulas keep their < and >.
func marshalIndent(v any) ([]byte, error) {
	var sb strings.Builder
	enc := json.NewEncoder(&sb)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return []byte(strings.TrimRight(sb.String(), "\n")), nil
}

// FormatModel prints the model as numbered SORTS, ONTOLOGY AGREEMENTS and
// KNOWLEDGE sections. An empty section prints "Empty".
func FormatModel(m Model) string {
	var sb strings.Builder
	for i, section := range []struct {
		title string
		lines []string
	}{
		{"SORTS", m.Sorts},
		{"ONTOLOGY AGREEMENTS", m.OntologyAgreements},
		{"KNOWLEDGE", m.Knowledge},
	} {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(section.title + ":\n")
		if len(section.lines) == 0 {
			sb.WriteString("Empty\n")
			continue
		}
		for n, line := range section.lines {
			fmt.Fprintf(&sb, "%d. %s\n", n+1, line)
		}
	}
	return sb.String()
}
