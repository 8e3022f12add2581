// Package definitions loads authored domain files (term sentences, assertion
// lists and term-name lists in YAML) and keeps a domain model in sync with
// them.
package definitions

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"ontomodel/internal/logging"
	"ontomodel/internal/ontology"
)

// TermLists holds extra term names per assertion type.
type TermLists struct {
	Ontology  []string `yaml:"ontology,omitempty"`
	Knowledge []string `yaml:"knowledge,omitempty"`
}

// File is one authored domain.
type File struct {
	Domain    string              `yaml:"domain"`
	Terms     []ontology.Sentence `yaml:"terms"`
	Ontology  []string            `yaml:"ontology,omitempty"`
	Knowledge []string            `yaml:"knowledge,omitempty"`
	TermLists TermLists           `yaml:"term_lists,omitempty"`

	// Path is the file the definitions were read from.
	Path string `yaml:"-"`
}

// Parse decodes a definitions document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse definitions: %w", err)
	}
	if f.Domain == "" {
		return nil, errors.New("definitions: domain is required")
	}
	for i, t := range f.Terms {
		if t.Text == "" {
			return nil, fmt.Errorf("definitions: term %d has no sentence", i+1)
		}
	}
	return &f, nil
}

// Load reads and parses one definitions file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definitions: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Path = path
	logging.ExtractDebug("Loaded %s: domain=%s terms=%d", path, f.Domain, len(f.Terms))
	return f, nil
}

// Glob loads every file matching pattern, which may use "**". Matches are
// loaded in lexical order.
func Glob(pattern string) ([]*File, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob error: %w", err)
	}
	sort.Strings(matches)

	files := make([]*File, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		f, err := Load(m)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// Save writes f as YAML.
func Save(path string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode definitions: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// BuildInput returns the builder input for f.
func (f *File) BuildInput() ontology.BuildInput {
	return ontology.BuildInput{
		Domain:    f.Domain,
		Ontology:  f.Ontology,
		Knowledge: f.Knowledge,
		TermLists: map[ontology.AssertionType][]string{
			ontology.Ontology:  f.TermLists.Ontology,
			ontology.Knowledge: f.TermLists.Knowledge,
		},
	}
}

// Sync applies the term sentences of f, writes its non-empty term lists to
// the builder's term-list files and rebuilds the domain model.
func Sync(svc *ontology.Service, b *ontology.Builder, f *File) (*ontology.Report, *ontology.BuildResult, error) {
	report, err := svc.ApplySentences(f.Domain, f.Terms)
	if err != nil {
		return nil, nil, err
	}
	for t, names := range map[ontology.AssertionType][]string{
		ontology.Ontology:  f.TermLists.Ontology,
		ontology.Knowledge: f.TermLists.Knowledge,
	} {
		if len(names) == 0 {
			continue
		}
		if err := ontology.WriteTermList(b.TermListPath(f.Domain, t), names); err != nil {
			return report, nil, fmt.Errorf("write %s term list: %w", t, err)
		}
	}
	built, err := b.Build(f.BuildInput())
	if err != nil {
		return report, nil, err
	}
	return report, built, nil
}
