// Package ontology runs the extraction pass and the model build over the term
// store: sentences become validated facts, facts become sort declarations, and
// authored assertions become formal expressions and trees.
package ontology

import (
	"errors"
	"fmt"

	"ontomodel/internal/logging"
	"ontomodel/internal/store"
	"ontomodel/internal/termfact"
)

// Sentence is one authored term sentence. An empty Kind is detected from the text.
type Sentence struct {
	Kind termfact.Kind `json:"kind,omitempty" yaml:"kind,omitempty"`
	Text string        `json:"sentence" yaml:"sentence"`
}

// ExtractSentences turns authored sentences into facts, in order. It fails
// only when a kind tag is unknown or cannot be detected; template misses
// still yield partial facts for validation to report.
func ExtractSentences(sentences []Sentence) ([]termfact.Fact, error) {
	facts := make([]termfact.Fact, 0, len(sentences))
	for i, s := range sentences {
		f, err := termfact.Extract(s.Kind, s.Text)
		if err != nil {
			return nil, fmt.Errorf("sentence %d: %w", i+1, err)
		}
		facts = append(facts, f)
	}
	return facts, nil
}

// Report summarises one extraction pass.
type Report struct {
	Domain    string            `json:"domain"`
	Inserted  int               `json:"inserted"`
	Updated   int               `json:"updated"`
	Unchanged int               `json:"unchanged"`
	Deleted   []store.TermKey   `json:"deleted,omitempty"`
	Results   map[string]string `json:"results,omitempty"`
}

// Saved returns the number of terms written by the pass.
func (r *Report) Saved() int {
	return r.Inserted + r.Updated
}

// Service applies full extraction passes to a term store.
type Service struct {
	store     *store.TermStore
	validator *Validator
}

// NewService returns a service over s. A nil validator skips validation.
func NewService(s *store.TermStore, v *Validator) *Service {
	return &Service{store: s, validator: v}
}

// Apply validates the complete term set of domain, saves every fact in
// authoring order and then removes stored terms that are no longer present.
// Nothing is written when validation fails.
func (s *Service) Apply(domain string, facts []termfact.Fact) (*Report, error) {
	if domain == "" {
		return nil, errors.New("domain name required")
	}
	timer := logging.StartTimer(logging.CategoryModel, "Apply")
	defer timer.Stop()

	if s.validator != nil {
		err := s.validator.Validate(facts)
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			logging.Audit().Validated(domain, len(verr.Issues))
			return nil, err
		case err != nil:
			return nil, err
		}
		logging.Audit().Validated(domain, 0)
	}

	if _, err := s.store.EnsureDomain(domain); err != nil {
		return nil, err
	}

	report := &Report{Domain: domain, Results: make(map[string]string, len(facts))}
	keys := make([]store.TermKey, 0, len(facts))
	for _, f := range facts {
		res, err := s.store.Save(f, domain)
		if err != nil {
			return nil, fmt.Errorf("save %q: %w", f.Term, err)
		}
		switch res {
		case store.Inserted:
			report.Inserted++
		case store.Updated:
			report.Updated++
		default:
			report.Unchanged++
		}
		report.Results[f.Term] = res.String()
		keys = append(keys, store.TermKey{Kind: f.Kind(), Name: f.Term})
	}

	deleted, err := s.store.Reconcile(domain, keys)
	if err != nil {
		return nil, fmt.Errorf("reconcile %s: %w", domain, err)
	}
	report.Deleted = deleted

	logging.Model("Applied %s: %d inserted, %d updated, %d unchanged, %d deleted",
		domain, report.Inserted, report.Updated, report.Unchanged, len(report.Deleted))
	return report, nil
}

// ApplySentences extracts sentences and applies the resulting facts.
func (s *Service) ApplySentences(domain string, sentences []Sentence) (*Report, error) {
	facts, err := ExtractSentences(sentences)
	if err != nil {
		return nil, err
	}
	return s.Apply(domain, facts)
}
